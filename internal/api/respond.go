package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

var kindToStatus = map[apperrors.Kind]int{
	apperrors.KindBadRequest:   http.StatusBadRequest,
	apperrors.KindUnauthorized: http.StatusUnauthorized,
	apperrors.KindForbidden:    http.StatusForbidden,
	apperrors.KindNotFound:     http.StatusNotFound,
	apperrors.KindConflict:     http.StatusConflict,
	apperrors.KindInternal:     http.StatusInternalServerError,
}

// respondError maps a service error to its HTTP status and client-safe body.
// Internal detail never reaches the client; it goes to the log instead.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		logger.Error("internal error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(kindToStatus[kind], gin.H{
		"success": false,
		"error":   string(kind),
		"message": apperrors.MessageOf(err),
	})
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondList(c *gin.Context, data interface{}, total, limit, offset int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func badRequestBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   string(apperrors.KindBadRequest),
		"message": "Datos de entrada inválidos: " + err.Error(),
	})
}

// pagination parses limit/offset query params with sane bounds
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func currentUserID(c *gin.Context) string {
	return c.GetString("userID")
}

func currentUserRole(c *gin.Context) models.Role {
	if role, exists := c.Get("userRole"); exists {
		return role.(models.Role)
	}
	return ""
}
