package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/service"
)

// abortWithError maps service errors onto the response taxonomy: validation
// errors become field-keyed 400 bodies, missing records become 404, anything
// else is logged and hidden behind a 500.
func abortWithError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{verr.Field: []string{verr.Message}})
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	log.Printf("internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}
