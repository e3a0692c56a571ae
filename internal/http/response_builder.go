package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spendings/internal/core"
	"spendings/internal/log"
	"spendings/internal/repository"
)

var validationErrors = []error{
	core.ErrInvalidUser,
	core.ErrInvalidAmount,
	core.ErrEmptyType,
	core.ErrEmptyModel,
	core.ErrInvalidDate,
}

// statusFor maps an error to the HTTP status the API answers with.
func statusFor(err error) int {
	var br *badRequest
	if errors.As(err, &br) {
		return http.StatusBadRequest
	}
	if errors.Is(err, repository.ErrNotFound) {
		return http.StatusNotFound
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with {"error": "..."}. Internal errors are logged
// and their text is not sent to the client.
func writeError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "Request failed",
			log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
