package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/middleware"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

// requireUserID writes 401 and returns "" when the request carries no authenticated user.
func requireUserID(c *gin.Context) string {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return ""
	}
	return claims.UserID
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
