package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"catalog_back_end/internal/logger"
	"catalog_back_end/internal/models"
)

// Search finds products whose title or description match query. The full-text
// index answers when configured; otherwise, or when it fails, the product file is
// scanned for a case-insensitive substring.
func (s *Service) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return products, nil
	}

	if s.index != nil {
		ids, err := s.index.Search(ctx, query)
		if err == nil {
			return pick(products, ids), nil
		}
		logger.Warn(ctx, "⚠️ Search index unavailable, scanning products", zap.Error(err))
	}

	q := strings.ToLower(query)
	matches := []models.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Description), q) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// pick returns the products with the given ids in id order. Ids the file no longer
// knows are skipped.
func pick(products []models.Product, ids []int64) []models.Product {
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
