package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	var (
		tooLarge *domain.TooLargeError
		missing  *domain.MissingColumnError
		locked   *domain.LockedError
	)
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, domain.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	case errors.As(err, &locked), errors.Is(err, domain.ErrAccountLocked):
		return http.StatusLocked
	case errors.Is(err, domain.ErrInvalidCredential), errors.Is(err, domain.ErrRoleUnavailable):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidWindow), errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error body. Internal errors are logged
// and replaced by a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	var locked *domain.LockedError
	if errors.As(err, &locked) {
		retry := int(math.Ceil(time.Until(locked.Until).Seconds()))
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(status, gin.H{"error": domain.ErrAccountLocked.Error(), "locked_until": locked.Until.UTC()})
		return
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
