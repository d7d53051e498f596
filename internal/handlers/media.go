package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"catalog_back_end/internal/media"
)

// MediaHandler streams uploaded files back from whichever backend stored them.
type MediaHandler struct {
	files media.Store
}

func NewMediaHandler(files media.Store) *MediaHandler {
	return &MediaHandler{files: files}
}

func (h *MediaHandler) Register(r gin.IRouter) {
	r.GET("/uploads/:name", h.Serve)
	r.HEAD("/uploads/:name", h.Serve)
}

func (h *MediaHandler) Serve(c *gin.Context) {
	obj, err := h.files.Open(c, c.Param("name"))
	if err != nil {
		if errors.Is(err, media.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		respondError(c, err)
		return
	}
	defer obj.Body.Close()

	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", obj.ContentType)
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
		c.Status(http.StatusOK)
		return
	}
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}
