package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bistro-backend/models"
)

type StatsServiceAPI interface {
	Summary(ctx context.Context) (*models.SummaryStats, error)
	CategoryStats(ctx context.Context) ([]models.CategoryStat, error)
}

type StatsController struct {
	service StatsServiceAPI
}

func NewStatsController(s StatsServiceAPI) *StatsController {
	return &StatsController{service: s}
}

func (ctrl *StatsController) AdminStats(c *gin.Context) {
	stats, err := ctrl.service.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ctrl *StatsController) OrderStats(c *gin.Context) {
	rows, err := ctrl.service.CategoryStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
