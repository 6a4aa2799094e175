package controllers

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
)

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON decodes the body into v, failing the request with a validation error.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, apperrors.Validation(err.Error()))
		return false
	}
	return true
}
