package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bistro-backend/middleware"
	"github.com/yashrajoria/bistro-backend/models"
)

type CartServiceAPI interface {
	List(ctx context.Context, subject, email string) ([]models.CartEntry, error)
	Add(ctx context.Context, entry *models.CartEntry) error
	Remove(ctx context.Context, id string) (bool, error)
}

type CartController struct {
	service CartServiceAPI
}

func NewCartController(s CartServiceAPI) *CartController {
	return &CartController{service: s}
}

// GetCart lists ?email=, which must be the caller's own address.
func (ctrl *CartController) GetCart(c *gin.Context) {
	entries, err := ctrl.service.List(c.Request.Context(), middleware.Subject(c), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (ctrl *CartController) AddToCart(c *gin.Context) {
	var entry models.CartEntry
	if !bindJSON(c, &entry) {
		return
	}
	if err := ctrl.service.Add(c.Request.Context(), &entry); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"acknowledged": true, "insertedId": entry.ID})
}

func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	deleted, err := ctrl.service.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	count := 0
	if deleted {
		count = 1
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": count})
}
