package inventory

import (
	"context"
	"errors"
	"net/http"

	"depot/internal/metrics"
	"depot/internal/realtime"
	"depot/internal/session"
	custom_error "depot/pkg/errors"
	"depot/pkg/models"

	"github.com/gin-gonic/gin"
)

// State is the live snapshot the views validate against.
type State interface {
	Storage() models.StorageData
	Boxes() models.BoxesData
	Waste() models.WasteData
	Logs() []models.LogEntry
}

// Recorder submits a batch of path writes together with its log entry.
type Recorder interface {
	PerformUpdates(ctx context.Context, s session.Session, updates map[string]interface{}, action string) error
}

// Reject counts a request refused before any write and returns err unchanged.
func Reject(action string, err error) error {
	metrics.RecordRejection(action)
	return err
}

// ValidateID rejects ids that cannot be used as a store key.
func ValidateID(field, id string) error {
	if id == "" {
		return custom_error.NewValidationError(field, "is required")
	}
	if err := realtime.ValidateKey(id); err != nil {
		return custom_error.NewValidationError(field, err.Error())
	}
	return nil
}

func RespondError(c *gin.Context, err error, fallback string) {
	var (
		validation *custom_error.ValidationError
		quantity   *custom_error.InsufficientQuantityError
		notFound   *custom_error.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validation.Message, "property": validation.Field})
	case errors.As(err, &quantity):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     quantity.Error(),
			"requested": quantity.Requested,
			"available": quantity.Available,
		})
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.Is(err, realtime.ErrInvalidPath):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid identifier", "details": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}
