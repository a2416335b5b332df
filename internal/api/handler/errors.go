package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harshgondal/Job-Finder/internal/service"
)

// statusFor maps validation errors to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrRoleTooShort),
		errors.Is(err, service.ErrCompanyRequired),
		errors.Is(err, service.ErrInvalidMatchKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
