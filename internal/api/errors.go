package api

import (
	"net/http"

	"storefront/internal/apperr"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindBusinessRule: http.StatusUnprocessableEntity,
	apperr.KindGateway:      http.StatusBadGateway,
	apperr.KindAuth:         http.StatusUnauthorized,
	apperr.KindServer:       http.StatusInternalServerError,
}

func statusFor(err error) int {
	if status, ok := kindStatus[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func errorBody(err error) gin.H {
	appErr, ok := apperr.As(err)
	if !ok {
		return gin.H{
			"error": "Internal server error",
			"code":  apperr.CodeOf(err),
			"kind":  apperr.KindServer,
		}
	}
	return gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
		"kind":  appErr.Kind,
	}
}

// respondError writes err with the status of its kind. Unclassified errors
// are logged and reported without details.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		util.LoggerFromContext(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, errorBody(err))
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), errorBody(err))
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"code":    "invalid_request",
		"kind":    apperr.KindValidation,
		"details": err.Error(),
	})
}
