package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bluetecnologia/status_admin/internal/catalog"
)

type CatalogController struct {
	Catalog *catalog.Catalog
}

func (cc *CatalogController) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": cc.Catalog.Entries()})
}
