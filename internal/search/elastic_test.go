package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/models"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

type fakeCluster struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	body     string
	// itemStatus answers every document of a bulk request; zero means 201.
	itemStatus int
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	status, resp := f.status, f.body
	itemStatus := f.itemStatus
	f.mu.Unlock()

	if strings.HasSuffix(r.URL.Path, "/_bulk") && status == 0 {
		resp = bulkResponse(string(body), itemStatus)
	}

	if status == 0 {
		status = http.StatusOK
	}
	if resp == "" {
		resp = `{}`
	}
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

// bulkResponse answers one item per action line of an NDJSON bulk body.
func bulkResponse(body string, itemStatus int) string {
	if itemStatus == 0 {
		itemStatus = http.StatusCreated
	}
	var items []string
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		var action map[string]struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal([]byte(line), &action); err != nil {
			continue
		}
		meta, ok := action["index"]
		if !ok {
			continue
		}
		item := fmt.Sprintf(`{"index":{"_id":%q,"status":%d`, meta.ID, itemStatus)
		if itemStatus >= http.StatusBadRequest {
			item += `,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}`
		}
		items = append(items, item+"}}")
	}
	errs := itemStatus >= http.StatusBadRequest
	return fmt.Sprintf(`{"took":1,"errors":%t,"items":[%s]}`, errs, strings.Join(items, ","))
}

func (f *fakeCluster) bulkRequests() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recorded
	for _, r := range f.requests {
		if strings.HasSuffix(r.Path, "/_bulk") {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeCluster) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestIndex(t *testing.T, cluster *fakeCluster) *Elastic {
	t.Helper()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return New(client, "")
}

func TestIndexProduct(t *testing.T) {
	cluster := &fakeCluster{body: `{"result":"created"}`}
	idx := newTestIndex(t, cluster)

	err := idx.Index(context.Background(), models.Product{ID: 42, Title: "Shirt", Description: "Cotton"})
	require.NoError(t, err)

	req := cluster.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products/_doc/42", req.Path)
	assert.JSONEq(t, `{"id":42,"title":"Shirt","description":"Cotton"}`, req.Body)
}

func TestIndexProductClusterError(t *testing.T) {
	cluster := &fakeCluster{status: http.StatusInternalServerError}
	idx := newTestIndex(t, cluster)

	err := idx.Index(context.Background(), models.Product{ID: 1})
	assert.Error(t, err)
}

func TestDeleteToleratesMissingDocument(t *testing.T) {
	cluster := &fakeCluster{status: http.StatusNotFound, body: `{"result":"not_found"}`}
	idx := newTestIndex(t, cluster)

	require.NoError(t, idx.Delete(context.Background(), 7))
	req := cluster.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/products/_doc/7", req.Path)
}

func TestSearchReturnsIDsInHitOrder(t *testing.T) {
	cluster := &fakeCluster{body: `{"hits":{"hits":[{"_id":"3"},{"_id":"bogus"},{"_id":"1"}]}}`}
	idx := newTestIndex(t, cluster)

	ids, err := idx.Search(context.Background(), "shirt")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids)

	req := cluster.last()
	assert.Equal(t, "/products/_search", req.Path)
	assert.Contains(t, req.Body, `"multi_match"`)
	assert.Contains(t, req.Body, `"shirt"`)
}

func TestSearchClusterError(t *testing.T) {
	cluster := &fakeCluster{status: http.StatusBadRequest, body: `{"error":"bad"}`}
	idx := newTestIndex(t, cluster)

	_, err := idx.Search(context.Background(), "shirt")
	assert.Error(t, err)
}

func TestIndexAllUsesBulkAPI(t *testing.T) {
	cluster := &fakeCluster{}
	idx := newTestIndex(t, cluster)

	products := []models.Product{
		{ID: 1, Title: "Shirt", Description: "Cotton"},
		{ID: 2, Title: "Hat", Description: "Wool"},
	}
	require.NoError(t, idx.IndexAll(context.Background(), products))

	bulk := cluster.bulkRequests()
	require.Len(t, bulk, 1)
	assert.Equal(t, http.MethodPost, bulk[0].Method)
	assert.Equal(t, "/products/_bulk", bulk[0].Path)

	lines := strings.Split(strings.TrimSpace(bulk[0].Body), "\n")
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_id":"1"}}`, lines[0])
	assert.JSONEq(t, `{"id":1,"title":"Shirt","description":"Cotton"}`, lines[1])
	assert.JSONEq(t, `{"index":{"_id":"2"}}`, lines[2])
	assert.JSONEq(t, `{"id":2,"title":"Hat","description":"Wool"}`, lines[3])
}

func TestIndexAllEmptyCatalogSendsNothing(t *testing.T) {
	cluster := &fakeCluster{}
	idx := newTestIndex(t, cluster)

	require.NoError(t, idx.IndexAll(context.Background(), nil))
	assert.Empty(t, cluster.bulkRequests())
}

func TestIndexAllReportsRejectedDocuments(t *testing.T) {
	cluster := &fakeCluster{itemStatus: http.StatusBadRequest}
	idx := newTestIndex(t, cluster)

	err := idx.IndexAll(context.Background(), []models.Product{{ID: 1, Title: "Shirt"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
