package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bistro-backend/models"
)

// CatalogServiceAPI defines the menu and review operations.
type CatalogServiceAPI interface {
	Menu(ctx context.Context) ([]models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
	Reviews(ctx context.Context) ([]models.Review, error)
}

type MenuController struct {
	service CatalogServiceAPI
}

func NewMenuController(s CatalogServiceAPI) *MenuController {
	return &MenuController{service: s}
}

func (ctrl *MenuController) GetMenu(c *gin.Context) {
	items, err := ctrl.service.Menu(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (ctrl *MenuController) CreateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if !bindJSON(c, &item) {
		return
	}
	if err := ctrl.service.CreateMenuItem(c.Request.Context(), &item); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (ctrl *MenuController) DeleteMenuItem(c *gin.Context) {
	if err := ctrl.service.DeleteMenuItem(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": 1})
}

func (ctrl *MenuController) GetReviews(c *gin.Context) {
	reviews, err := ctrl.service.Reviews(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}
