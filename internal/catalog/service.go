// Package catalog implements the product operations. Every write loads the whole
// product collection, changes one record and saves the collection back.
package catalog

import (
	"context"
	"math"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalog_back_end/internal/apperr"
	"catalog_back_end/internal/logger"
	"catalog_back_end/internal/media"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/store"
)

// Cache holds the product list between writes.
type Cache interface {
	Products(ctx context.Context) ([]models.Product, bool)
	SetProducts(ctx context.Context, products []models.Product)
	Invalidate(ctx context.Context)
}

// Index is a full-text product index. Search returns matching ids, best first.
// IndexAll loads a whole catalog, for products written before the index existed.
type Index interface {
	Index(ctx context.Context, p models.Product) error
	IndexAll(ctx context.Context, products []models.Product) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]int64, error)
}

type Service struct {
	products *store.JSONFile[models.Product]
	media    media.Store
	cache    Cache
	index    Index
	now      func() time.Time
}

type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }
func WithIndex(i Index) Option { return func(s *Service) { s.index = i } }

func NewService(products *store.JSONFile[models.Product], files media.Store, opts ...Option) *Service {
	s := &Service{products: products, media: files, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Title       string
	Price       decimal.Decimal
	Description string
	Image       *multipart.FileHeader
	Video       *multipart.FileHeader
}

type EditInput struct {
	Title       string
	Price       decimal.Decimal
	Description string
}

type SizeAction string

const (
	SizeAdd    SizeAction = "add"
	SizeRemove SizeAction = "remove"
)

// ParseID matches a request id against stored numeric ids. Anything that is not an
// integer never matches.
func ParseID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// Create stores the uploaded media and appends a new product. When a video is
// uploaded it becomes the primary media.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.Product, error) {
	if in.Image == nil {
		return models.Product{}, apperr.ErrMediaRequired
	}
	if in.Price.IsNegative() {
		return models.Product{}, apperr.ErrInvalidPrice
	}

	primaryFile := in.Image
	if in.Video != nil {
		primaryFile = in.Video
	}
	path, err := s.media.Store(ctx, primaryFile)
	if err != nil {
		return models.Product{}, err
	}

	product := models.Product{
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		Primary:     media.Primary(path),
		Images:      []string{},
		Sizes:       append([]string(nil), models.DefaultSizes...),
	}

	err = s.products.Update(ctx, func(list []models.Product) ([]models.Product, error) {
		product.ID = s.newID(list)
		return append(list, product), nil
	})
	if err != nil {
		s.discard(ctx, path)
		return models.Product{}, err
	}

	logger.Info(ctx, "✅ Product created", zap.Int64("id", product.ID), zap.String("title", product.Title))
	s.afterWrite(ctx, product)
	return product, nil
}

// newID is the creation timestamp, bumped past the newest id if two creates land
// in the same millisecond.
func (s *Service) newID(list []models.Product) int64 {
	id := s.now().UnixMilli()
	for _, p := range list {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	return id
}

// List reads through the cache. A miss refills it while writers are held off, so
// a list older than the latest write never lands in the cache.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	if s.cache == nil {
		return s.products.Load(ctx)
	}
	if products, ok := s.cache.Products(ctx); ok {
		return products, nil
	}

	var products []models.Product
	err := s.products.View(ctx, func(list []models.Product) error {
		products = list
		s.cache.SetProducts(ctx, list)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (models.Product, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return models.Product{}, apperr.ErrProductNotFound
	}
	products, err := s.List(ctx)
	if err != nil {
		return models.Product{}, err
	}
	if i := indexOf(products, id); i >= 0 {
		return products[i], nil
	}
	return models.Product{}, apperr.ErrProductNotFound
}

// AddImage stores file and appends it to the product's gallery.
func (s *Service) AddImage(ctx context.Context, rawID string, file *multipart.FileHeader) ([]string, error) {
	var stored string
	p, err := s.mutate(ctx, rawID, func(p *models.Product) error {
		if file == nil {
			return apperr.ErrMediaRequired
		}
		path, err := s.media.Store(ctx, file)
		if err != nil {
			return err
		}
		stored = path
		p.Images = append(p.Images, path)
		return nil
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}
	return p.Images, nil
}

// DeleteImage removes the file and drops every gallery entry with that path.
func (s *Service) DeleteImage(ctx context.Context, rawID, path string) error {
	_, err := s.mutate(ctx, rawID, func(p *models.Product) error {
		if strings.TrimSpace(path) == "" {
			return apperr.ErrImageURLRequired
		}
		if err := s.media.Remove(ctx, path); err != nil {
			return err
		}
		kept := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			if img != path {
				kept = append(kept, img)
			}
		}
		p.Images = kept
		return nil
	})
	return err
}

// ReplacePrimary swaps the primary media, classifying the new file by extension.
func (s *Service) ReplacePrimary(ctx context.Context, rawID string, file *multipart.FileHeader) (models.PrimaryMedia, error) {
	var stored string
	p, err := s.mutate(ctx, rawID, func(p *models.Product) error {
		if file == nil {
			return apperr.ErrMediaRequired
		}
		path, err := s.media.Store(ctx, file)
		if err != nil {
			return err
		}
		stored = path
		for _, old := range p.Primary.Paths() {
			if old == path || contains(p.Images, old) {
				continue
			}
			if err := s.media.Remove(ctx, old); err != nil {
				return err
			}
		}
		p.Primary = media.Primary(path)
		return nil
	})
	if err != nil {
		s.discard(ctx, stored)
		return models.PrimaryMedia{}, err
	}
	return p.Primary, nil
}

// EditFields overwrites title, price and description. Fields left out of the
// request end up empty.
func (s *Service) EditFields(ctx context.Context, rawID string, in EditInput) (models.Product, error) {
	return s.mutate(ctx, rawID, func(p *models.Product) error {
		if in.Price.IsNegative() {
			return apperr.ErrInvalidPrice
		}
		p.Title = in.Title
		p.Price = in.Price
		p.Description = in.Description
		return nil
	})
}

// ChangeSize adds or removes one size label. Adding a present size or removing an
// absent one changes nothing.
func (s *Service) ChangeSize(ctx context.Context, rawID string, action SizeAction, size string) ([]string, error) {
	size = strings.TrimSpace(size)
	p, err := s.mutate(ctx, rawID, func(p *models.Product) error {
		if size == "" {
			return apperr.ErrSizeRequired
		}
		switch action {
		case SizeAdd:
			if !p.HasSize(size) {
				p.Sizes = append(p.Sizes, size)
			}
		case SizeRemove:
			kept := make([]string, 0, len(p.Sizes))
			for _, existing := range p.Sizes {
				if existing != size {
					kept = append(kept, existing)
				}
			}
			p.Sizes = kept
		default:
			return apperr.ErrInvalidSizeAction
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.Sizes, nil
}

// Delete drops the record, then removes every media file it referenced. A file
// that cannot be removed is logged and left behind; the record is already gone.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, ok := ParseID(rawID)
	if !ok {
		return apperr.ErrProductNotFound
	}

	var removed models.Product
	err := s.products.Update(ctx, func(list []models.Product) ([]models.Product, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, apperr.ErrProductNotFound
		}
		removed = list[i]
		return append(list[:i], list[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	for _, path := range removed.MediaPaths() {
		if err := s.media.Remove(ctx, path); err != nil {
			logger.Warn(ctx, "⚠️ Media of deleted product left on storage", zap.Int64("id", id), zap.String("path", path), zap.Error(err))
		}
	}

	logger.Info(ctx, "🗑️ Product deleted", zap.Int64("id", id))
	s.invalidate(ctx)
	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			logger.Warn(ctx, "⚠️ Search index delete failed", zap.Int64("id", id), zap.Error(err))
		}
	}
	return nil
}

// Reject reports err for the product rawID, or not-found when there is no such
// product. Handlers use it for request bodies they could not read, so an unknown
// id wins over a bad body.
func (s *Service) Reject(ctx context.Context, rawID string, err error) error {
	_, lookupErr := s.mutate(ctx, rawID, func(*models.Product) error { return err })
	return lookupErr
}

// Reindex pushes every stored product to the search index.
func (s *Service) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	products, err := s.products.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.index.IndexAll(ctx, products); err != nil {
		return err
	}
	logger.Info(ctx, "🔎 Search index rebuilt", zap.Int("products", len(products)))
	return nil
}

func (s *Service) mutate(ctx context.Context, rawID string, fn func(p *models.Product) error) (models.Product, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return models.Product{}, apperr.ErrProductNotFound
	}

	var out models.Product
	err := s.products.Update(ctx, func(list []models.Product) ([]models.Product, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, apperr.ErrProductNotFound
		}
		if err := fn(&list[i]); err != nil {
			return nil, err
		}
		out = list[i]
		return list, nil
	})
	if err != nil {
		return models.Product{}, err
	}

	s.afterWrite(ctx, out)
	return out, nil
}

// afterWrite refreshes the derived views of the catalog. Neither failure is
// reported to the caller, the product file is the source of truth.
func (s *Service) afterWrite(ctx context.Context, p models.Product) {
	s.invalidate(ctx)
	if s.index != nil {
		if err := s.index.Index(ctx, p); err != nil {
			logger.Warn(ctx, "⚠️ Search indexing failed", zap.Int64("id", p.ID), zap.Error(err))
		}
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// discard removes a file stored by an operation that then failed.
func (s *Service) discard(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.media.Remove(ctx, path); err != nil {
		logger.Warn(ctx, "⚠️ Orphaned upload left on storage", zap.String("path", path), zap.Error(err))
	}
}

func indexOf(list []models.Product, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
