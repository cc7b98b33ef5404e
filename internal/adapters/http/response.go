package httpadapter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, errorEnvelope{
		Error: apiError{
			Message: msg,
			Code:    code,
		},
	})
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, http.StatusBadRequest, "invalid_input", errors.New(msg))
}

// writeError maps service errors onto status codes. Unknown errors are logged
// and hidden behind a generic message.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "invalid_input", err)
	default:
		observability.LoggerFromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, "internal", errors.New("internal server error"))
	}
}

// tolerated reports whether the request can still be answered: err is nil
// or only carries storage failures, which are logged.
func tolerated(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	if domain.IsPersistenceError(err) {
		observability.LoggerFromContext(c.Request.Context()).Warn("response served with storage failures", "path", c.FullPath(), "error", err)
		return true
	}
	return false
}
