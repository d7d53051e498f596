package handlers

import (
	stdjson "encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"catalog_back_end/internal/apperr"
	"catalog_back_end/internal/catalog"
	"catalog_back_end/internal/models"
)

type ProductHandler struct {
	products *catalog.Service
}

func NewProductHandler(products *catalog.Service) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) Register(r gin.IRouter) {
	r.POST("/upload", h.Upload)
	r.GET("/products", h.List)
	r.GET("/products/search", h.Search)

	p := r.Group("/product/:id")
	p.GET("", h.Get)
	p.POST("/image", h.AddImage)
	p.POST("/image/delete", h.DeleteImage)
	p.POST("/image/replace", h.ReplaceImage)
	p.POST("/edit", h.Edit)
	p.POST("/size", h.ChangeSize)
	p.POST("/delete", h.Delete)
}

// =========================
// 🟢 CREATE
// =========================

func (h *ProductHandler) Upload(c *gin.Context) {
	image, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperr.ErrMediaRequired)
		return
	}
	video, _ := c.FormFile("video")

	price, err := parsePrice(c.PostForm("price"))
	if err != nil {
		respondError(c, apperr.Wrap(apperr.ErrInvalidPrice, err))
		return
	}

	product, err := h.products.Create(c, catalog.CreateInput{
		Title:       c.PostForm("title"),
		Price:       price,
		Description: c.PostForm("description"),
		Image:       image,
		Video:       video,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

// parsePrice reads a form price. An empty value is zero.
func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// =========================
// 🔍 READ
// =========================

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Search(c *gin.Context) {
	products, err := h.products.Search(c, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.Get(c, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// =========================
// 🖼️ MEDIA
// =========================

func (h *ProductHandler) AddImage(c *gin.Context) {
	file, _ := c.FormFile("image")
	images, err := h.products.AddImage(c, c.Param("id"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "images": images})
}

func (h *ProductHandler) DeleteImage(c *gin.Context) {
	var req struct {
		ImageURL text `json:"imageUrl"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.reject(c, apperr.Wrap(apperr.ErrBadRequest, err))
		return
	}
	if err := h.products.DeleteImage(c, c.Param("id"), string(req.ImageURL)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ProductHandler) ReplaceImage(c *gin.Context) {
	file, _ := c.FormFile("image")
	primary, err := h.products.ReplacePrimary(c, c.Param("id"), file)
	if err != nil {
		respondError(c, err)
		return
	}

	var video interface{}
	if primary.IsVideo() {
		video = primary.VideoURL()
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "imageUrl": primary.ImageURL(), "video": video})
}

// =========================
// ✏️ EDIT
// =========================

func (h *ProductHandler) Edit(c *gin.Context) {
	var req struct {
		Title       text               `json:"title"`
		Price       stdjson.RawMessage `json:"price"`
		Description text               `json:"description"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.reject(c, apperr.Wrap(apperr.ErrBadRequest, err))
		return
	}
	price, err := models.ParsePrice(req.Price)
	if err != nil {
		h.reject(c, apperr.Wrap(apperr.ErrInvalidPrice, err))
		return
	}

	product, err := h.products.EditFields(c, c.Param("id"), catalog.EditInput{
		Title:       string(req.Title),
		Price:       price,
		Description: string(req.Description),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (h *ProductHandler) ChangeSize(c *gin.Context) {
	var req struct {
		Action text `json:"action"`
		Size   text `json:"size"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.reject(c, apperr.Wrap(apperr.ErrBadRequest, err))
		return
	}

	action := catalog.SizeAction(strings.ToLower(string(req.Action)))
	sizes, err := h.products.ChangeSize(c, c.Param("id"), action, string(req.Size))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sizes": sizes})
}

// reject answers a body that could not be read. An unknown product is still a 404.
func (h *ProductHandler) reject(c *gin.Context, err error) {
	respondError(c, h.products.Reject(c, c.Param("id"), err))
}

// =========================
// 🗑️ DELETE
// =========================

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Delete(c, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted"})
}
