package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bistro-backend/common/auth"
	"github.com/yashrajoria/bistro-backend/middleware"
	"github.com/yashrajoria/bistro-backend/models"
)

// AuthServiceAPI defines the user and token operations the controller uses.
type AuthServiceAPI interface {
	IssueToken(identity auth.IdentityClaims) (string, error)
	Register(ctx context.Context, user *models.User) (bool, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	Promote(ctx context.Context, id string) error
}

// AdminStatusAPI answers the self-only admin query.
type AdminStatusAPI interface {
	AdminStatus(ctx context.Context, claims *auth.Claims, email string) (bool, error)
}

type AuthController struct {
	service AuthServiceAPI
	gate    AdminStatusAPI
}

func NewAuthController(service AuthServiceAPI, gate AdminStatusAPI) *AuthController {
	return &AuthController{service: service, gate: gate}
}

// IssueToken signs a one-hour token for the posted identity.
func (ctrl *AuthController) IssueToken(c *gin.Context) {
	var identity auth.IdentityClaims
	if !bindJSON(c, &identity) {
		return
	}
	token, err := ctrl.service.IssueToken(identity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (ctrl *AuthController) Register(c *gin.Context) {
	var user models.User
	if !bindJSON(c, &user) {
		return
	}
	inserted, err := ctrl.service.Register(c.Request.Context(), &user)
	if err != nil {
		fail(c, err)
		return
	}
	if !inserted {
		c.JSON(http.StatusOK, gin.H{"message": "User already exist"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"acknowledged": true, "insertedId": user.ID})
}

func (ctrl *AuthController) ListUsers(c *gin.Context) {
	users, err := ctrl.service.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// AdminStatus reports {admin:false} for anyone but the caller.
func (ctrl *AuthController) AdminStatus(c *gin.Context) {
	isAdmin, err := ctrl.gate.AdminStatus(c.Request.Context(), middleware.ClaimsFrom(c), c.Param("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": isAdmin})
}

func (ctrl *AuthController) Promote(c *gin.Context) {
	if err := ctrl.service.Promote(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User promoted to admin", "modifiedCount": 1})
}
