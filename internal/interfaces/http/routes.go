package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}

	api := router.Group("/api/v1")
	{
		api.GET("/health", health)

		api.GET("/portfolios", handler.ListPortfolios)
		api.POST("/portfolios", handler.CreatePortfolio)
		api.GET("/portfolios/:name", handler.GetPortfolio)
		api.DELETE("/portfolios/:name", handler.DeletePortfolio)
		api.POST("/portfolios/:name/refresh", handler.RefreshPortfolio)

		api.POST("/portfolios/:name/holdings", handler.AddHolding)
		api.POST("/portfolios/:name/holdings/batch", handler.AddHoldingsBatch)
		api.GET("/portfolios/:name/holdings/:ticker", handler.GetHolding)
		api.DELETE("/portfolios/:name/holdings/:ticker", handler.DeleteHolding)
		api.POST("/portfolios/:name/holdings/:ticker/details", handler.RefreshHoldingDetails)

		api.GET("/quotes/:ticker/history", handler.GetPriceHistory)
		api.GET("/quotes/:ticker/chart.png", handler.GetPriceChart)
	}

	router.GET("/health", health)
}
