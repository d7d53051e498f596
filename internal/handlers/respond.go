// Package handlers is the HTTP surface of the catalog server.
package handlers

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog_back_end/internal/apperr"
	"catalog_back_end/internal/logger"
)

// respondError writes {error} with the status of an application error. Anything
// else is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperr.From(err); ok && appErr.Code < http.StatusInternalServerError {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	logger.Error(c, "❌ Request failed", err, zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusInternalServerError, gin.H{"error": apperr.ErrInternalServer.Message})
}

func badRequest(c *gin.Context, err error) {
	respondError(c, apperr.Wrap(apperr.ErrBadRequest, err))
}

// bindJSON decodes the request body into v. An empty body leaves v zero so the
// product lookup still decides between 404 and a field error.
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// text is a body field that takes a string, a number or null. Numbers keep their
// literal spelling.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := stdjson.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	case data[0] == '{' || data[0] == '[':
		return errors.New("expected a string")
	default:
		*t = text(data)
	}
	return nil
}
