package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog_back_end/internal/handlers"
)

// Registrar is a handler group that adds its own routes.
type Registrar interface {
	Register(r gin.IRouter)
}

func RegisterRoutes(r *gin.Engine, groups ...Registrar) {
	r.GET("/healthz", handlers.Health)
	for _, g := range groups {
		g.Register(r)
	}
}

// ServePublic answers unmatched GET and HEAD requests from dir, which holds the
// front-end assets.
func ServePublic(r *gin.Engine, dir string) {
	files := http.FileServer(http.Dir(dir))
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		if !exists(dir, c.Request.URL.Path) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})
}

func exists(dir, urlPath string) bool {
	name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+strings.TrimPrefix(urlPath, "/"))))
	info, err := os.Stat(name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(name, "index.html"))
		return err == nil
	}
	return true
}
