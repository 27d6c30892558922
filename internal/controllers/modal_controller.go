package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bluetecnologia/status_admin/internal/gateway"
	"github.com/bluetecnologia/status_admin/internal/modal"
	"github.com/bluetecnologia/status_admin/internal/models"
)

// ModalController exposes the modal trigger boundary to the pages and to
// scripts.
type ModalController struct {
	Gateway     gateway.Gateway
	Logger      *zap.Logger
	ListingPath string
}

type openModalRequest struct {
	Type   modal.Type            `json:"type" binding:"required"`
	Server *models.ServiceRecord `json:"server"`
}

type modalResponse struct {
	IsOpen bool          `json:"isOpen"`
	Type   *modal.Type   `json:"type"`
	Data   modal.Payload `json:"data"`
}

func toModalResponse(st modal.State) modalResponse {
	resp := modalResponse{IsOpen: st.IsOpen, Data: st.Data}
	if st.Type != "" {
		t := st.Type
		resp.Type = &t
	}
	return resp
}

func knownModal(t modal.Type) bool {
	return t == modal.CreateService
}

// Open handles the page trigger: form fields type and an optional id of the
// record to edit.
func (mc *ModalController) Open(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	t := modal.Type(c.PostForm("type"))
	if !knownModal(t) {
		c.String(http.StatusBadRequest, "unknown modal type")
		return
	}

	var payload modal.Payload
	if raw := c.PostForm("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.String(http.StatusBadRequest, "invalid service id")
			return
		}
		rec, err := mc.Gateway.FindByID(c.Request.Context(), uint(id))
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, gateway.ErrNotFound) {
				status = http.StatusNotFound
			} else {
				mc.Logger.Error("failed to load service for edit", zap.Uint64("id", id), zap.Error(err))
			}
			c.String(status, "service not available")
			return
		}
		payload.Server = &rec
	}

	sess.Modal.Open(t, payload)
	c.Redirect(http.StatusSeeOther, mc.listingPath())
}

func (mc *ModalController) Close(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	sess.Form.Cancel()
	c.Redirect(http.StatusSeeOther, mc.listingPath())
}

func (mc *ModalController) State(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toModalResponse(sess.Modal.State()))
}

func (mc *ModalController) OpenJSON(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req openModalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !knownModal(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown modal type"})
		return
	}
	if req.Server != nil && !req.Server.HasID() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "server.id is required"})
		return
	}
	st := sess.Modal.Open(req.Type, modal.Payload{Server: req.Server})
	c.JSON(http.StatusOK, toModalResponse(st))
}

func (mc *ModalController) CloseJSON(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	sess.Form.Cancel()
	c.JSON(http.StatusOK, toModalResponse(sess.Modal.State()))
}

func (mc *ModalController) listingPath() string {
	if mc.ListingPath == "" {
		return "/"
	}
	return mc.ListingPath
}
