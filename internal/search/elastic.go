// Package search keeps an Elasticsearch index of product text fields.
package search

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"catalog_back_end/internal/logger"
	"catalog_back_end/internal/models"
)

const DefaultIndex = "products"

// MaxResults bounds a single search.
const MaxResults = 100

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

type Elastic struct {
	client *elasticsearch.Client
	index  string
}

// Connect creates the client and checks the cluster answers.
func Connect(ctx context.Context, cfg Config) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create elasticsearch client")
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "reach elasticsearch")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("elasticsearch info: %s", res.Status())
	}

	logger.Info(ctx, "✅ Connected to Elasticsearch", zap.String("url", cfg.URL))
	return New(client, cfg.Index), nil
}

func New(client *elasticsearch.Client, index string) *Elastic {
	if index == "" {
		index = DefaultIndex
	}
	return &Elastic{client: client, index: index}
}

// document is the indexed subset of a product.
type document struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func newDocument(p models.Product) ([]byte, error) {
	return json.Marshal(document{ID: p.ID, Title: p.Title, Description: p.Description})
}

func (e *Elastic) Index(ctx context.Context, p models.Product) error {
	data, err := newDocument(p)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: strconv.FormatInt(p.ID, 10),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, "index product")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("index product %d: %s", p.ID, res.Status())
	}
	return nil
}

// IndexAll writes every product through the bulk API. Documents already in the
// index are overwritten.
func (e *Elastic) IndexAll(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     e.client,
		Index:      e.index,
		NumWorkers: 1,
		Refresh:    "true",
		OnError:    func(_ context.Context, err error) { fail(errors.Wrap(err, "bulk index")) },
	})
	if err != nil {
		return errors.Wrap(err, "create bulk indexer")
	}

	for _, p := range products {
		data, err := newDocument(p)
		if err != nil {
			_ = bi.Close(ctx)
			return err
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: strconv.FormatInt(p.ID, 10),
			Body:       bytes.NewReader(data),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err == nil {
					err = errors.Errorf("%s: %s", res.Error.Type, res.Error.Reason)
				}
				fail(errors.Wrapf(err, "index product %s", item.DocumentID))
			},
		})
		if err != nil {
			_ = bi.Close(ctx)
			return errors.Wrap(err, "queue product for bulk index")
		}
	}
	if err := bi.Close(ctx); err != nil {
		return errors.Wrap(err, "flush bulk index")
	}

	stats := bi.Stats()
	if stats.NumFailed > 0 {
		if firstErr == nil {
			firstErr = errors.New("bulk index rejected documents")
		}
		return errors.Wrapf(firstErr, "%d of %d products not indexed", stats.NumFailed, len(products))
	}
	return firstErr
}

// Delete drops a product from the index. A missing document is not an error.
func (e *Elastic) Delete(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: strconv.FormatInt(id, 10),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, "delete product from index")
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.Errorf("delete product %d: %s", id, res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a multi_match over title and description and returns product ids,
// best match first.
func (e *Elastic) Search(ctx context.Context, query string) ([]int64, error) {
	var buf bytes.Buffer
	q := map[string]interface{}{
		"size": MaxResults,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "description"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, errors.Wrap(err, "encode search query")
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, errors.Errorf("search products: %s %s", res.Status(), body)
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}

	ids := make([]int64, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
