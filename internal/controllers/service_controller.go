package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/bluetecnologia/status_admin/internal/form"
	"github.com/bluetecnologia/status_admin/internal/gateway"
	"github.com/bluetecnologia/status_admin/internal/middleware"
	"github.com/bluetecnologia/status_admin/internal/session"
	"github.com/bluetecnologia/status_admin/internal/views"
	"github.com/bluetecnologia/status_admin/internal/ws"
)

const listFailedMessage = "Não foi possível carregar os serviços."

type ServiceController struct {
	Gateway     gateway.Gateway
	Hub         *ws.RefreshHub
	Logger      *zap.Logger
	ListingPath string
}

// redirectNavigator turns the form's navigation into a refresh broadcast
// and a redirect target for the current response.
type redirectNavigator struct {
	hub    *ws.RefreshHub
	target string
}

func (n *redirectNavigator) Refresh() {
	n.hub.Broadcast(ws.RefreshEvent{Type: "refresh"})
}

func (n *redirectNavigator) Navigate(path string) {
	n.target = path
}

func (sc *ServiceController) Index(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	sc.render(c, http.StatusOK, sess.Form.Sync())
}

func (sc *ServiceController) Submit(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var in form.Values
	if err := c.ShouldBindWith(&in, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nav := &redirectNavigator{hub: sc.Hub}
	res := sess.Form.Submit(c.Request.Context(), in, nav)
	switch res.Outcome {
	case form.Saved:
		target := nav.target
		if target == "" {
			target = sc.listingPath()
		}
		c.Redirect(http.StatusSeeOther, target)
	case form.Stale:
		c.Redirect(http.StatusSeeOther, sc.listingPath())
	case form.Invalid:
		sc.render(c, http.StatusUnprocessableEntity, sess.Form.Sync())
	case form.Failed:
		sc.render(c, http.StatusBadGateway, sess.Form.Sync())
	case form.Busy:
		sc.render(c, http.StatusConflict, sess.Form.Sync())
	}
}

func (sc *ServiceController) render(c *gin.Context, status int, modal form.View) {
	services, err := sc.Gateway.List(c.Request.Context())
	page := views.NewPage(services, modal)
	if err != nil {
		sc.Logger.Warn("failed to list services", zap.Error(err))
		page.ListError = listFailedMessage
	}
	c.HTML(status, views.Layout, page)
}

func (sc *ServiceController) listingPath() string {
	if sc.ListingPath == "" {
		return "/"
	}
	return sc.ListingPath
}

func currentSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
	}
	return sess, ok
}
