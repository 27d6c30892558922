package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bluetecnologia/status_admin/internal/catalog"
	"github.com/bluetecnologia/status_admin/internal/controllers"
	"github.com/bluetecnologia/status_admin/internal/gateway"
	"github.com/bluetecnologia/status_admin/internal/middleware"
	"github.com/bluetecnologia/status_admin/internal/session"
	"github.com/bluetecnologia/status_admin/internal/views"
	"github.com/bluetecnologia/status_admin/internal/ws"
)

type Deps struct {
	Gateway     gateway.Gateway
	Catalog     *catalog.Catalog
	Sessions    *session.Registry
	Hub         *ws.RefreshHub
	Metrics     prometheus.Gatherer
	Logger      *zap.Logger
	ListingPath string
}

func Register(r *gin.Engine, d Deps) {
	r.SetHTMLTemplate(views.Templates())

	serviceCtrl := &controllers.ServiceController{
		Gateway:     d.Gateway,
		Hub:         d.Hub,
		Logger:      d.Logger,
		ListingPath: d.ListingPath,
	}
	modalCtrl := &controllers.ModalController{
		Gateway:     d.Gateway,
		Logger:      d.Logger,
		ListingPath: d.ListingPath,
	}
	catalogCtrl := &controllers.CatalogController{Catalog: d.Catalog}

	// Infrastructure
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": d.Sessions.Len()})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}
	r.GET("/ws/refresh", ws.RefreshHandler(d.Hub))

	// Pages
	ui := r.Group("", middleware.UISession(d.Sessions))
	{
		ui.GET("/", serviceCtrl.Index)
		ui.POST("/services", serviceCtrl.Submit)
		ui.POST("/modal/open", modalCtrl.Open)
		ui.POST("/modal/close", modalCtrl.Close)
	}
	if d.ListingPath != "" && d.ListingPath != "/" {
		ui.GET(d.ListingPath, serviceCtrl.Index)
	}

	// Modal trigger API
	api := r.Group("/api/v1", middleware.UISession(d.Sessions))
	{
		api.GET("/modal", modalCtrl.State)
		api.POST("/modal/open", modalCtrl.OpenJSON)
		api.POST("/modal/close", modalCtrl.CloseJSON)
		api.GET("/catalog", catalogCtrl.List)
	}
}
