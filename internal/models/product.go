package models

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices go out as JSON numbers, the front-end multiplies them directly.
	decimal.MarshalJSONWithoutQuotes = true
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultSizes is the size set every new product starts with.
var DefaultSizes = []string{"S", "M", "L", "XL", "XXL"}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// PrimaryMedia is the main display asset of a product, either an image or a video.
// Poster is the still image stored next to a video by older records, whose
// imageUrl and video named two different files.
type PrimaryMedia struct {
	Kind   MediaKind
	Path   string
	Poster string
}

func ImageMedia(path string) PrimaryMedia { return PrimaryMedia{Kind: MediaImage, Path: path} }
func VideoMedia(path string) PrimaryMedia { return PrimaryMedia{Kind: MediaVideo, Path: path} }

func (m PrimaryMedia) IsVideo() bool { return m.Kind == MediaVideo }

// ImageURL is what clients display: the primary path, or the poster of a video
// that has one.
func (m PrimaryMedia) ImageURL() string {
	if m.IsVideo() && m.Poster != "" {
		return m.Poster
	}
	return m.Path
}

// Paths lists the files behind the primary media.
func (m PrimaryMedia) Paths() []string {
	paths := make([]string, 0, 2)
	if m.Path != "" {
		paths = append(paths, m.Path)
	}
	if m.Poster != "" && m.Poster != m.Path {
		paths = append(paths, m.Poster)
	}
	return paths
}

// VideoURL is the primary path for a video, empty for an image.
func (m PrimaryMedia) VideoURL() string {
	if m.IsVideo() {
		return m.Path
	}
	return ""
}

type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Primary     PrimaryMedia    `json:"-"`
	Images      []string        `json:"images"`
	Sizes       []string        `json:"sizes"`
}

// productWire is the persisted and served shape. imageUrl and video are the two
// legacy fields backing Primary.
type productWire struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Price       jsoniter.RawMessage `json:"price"`
	Description string              `json:"description"`
	ImageURL    string              `json:"imageUrl"`
	Video       string              `json:"video,omitempty"`
	Images      []string            `json:"images"`
	Sizes       *[]string           `json:"sizes"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	sizes := p.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	price, err := p.Price.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(productWire{
		ID:          p.ID,
		Title:       p.Title,
		Price:       price,
		Description: p.Description,
		ImageURL:    p.Primary.ImageURL(),
		Video:       p.Primary.VideoURL(),
		Images:      images,
		Sizes:       &sizes,
	})
}

// UnmarshalJSON applies the record defaults: absent sizes become DefaultSizes,
// absent images become an empty gallery and a price that is not a number is zero.
func (p *Product) UnmarshalJSON(data []byte) error {
	var w productWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	price, err := ParsePrice(w.Price)
	if err != nil {
		price = decimal.Zero
	}
	*p = Product{
		ID:          w.ID,
		Title:       w.Title,
		Price:       price,
		Description: w.Description,
		Images:      w.Images,
	}
	if w.Video != "" {
		p.Primary = VideoMedia(w.Video)
		if w.ImageURL != w.Video {
			p.Primary.Poster = w.ImageURL
		}
	} else {
		p.Primary = ImageMedia(w.ImageURL)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if w.Sizes == nil {
		p.Sizes = append([]string(nil), DefaultSizes...)
	} else {
		p.Sizes = *w.Sizes
		if p.Sizes == nil {
			p.Sizes = []string{}
		}
	}
	return nil
}

// MediaPaths lists every file the product references, primary first, without duplicates.
func (p Product) MediaPaths() []string {
	seen := make(map[string]bool, len(p.Images)+1)
	paths := make([]string, 0, len(p.Images)+1)
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		paths = append(paths, path)
	}
	for _, path := range p.Primary.Paths() {
		add(path)
	}
	for _, img := range p.Images {
		add(img)
	}
	return paths
}

func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ParsePrice reads a price given as a JSON number or string. Null, an empty value
// and an empty string are zero.
func ParsePrice(raw []byte) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal([]byte(s), &str); err != nil {
			return decimal.Zero, err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return decimal.Zero, nil
		}
	}
	return decimal.NewFromString(s)
}
