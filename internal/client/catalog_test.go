package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

// catalogBackend serves fixed catalog responses and counts hits per path.
type catalogBackend struct {
	mu      sync.Mutex
	replies map[string]string
	hits    map[string]int
}

func (b *catalogBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	reply, ok := b.replies[r.URL.EscapedPath()]
	b.hits[r.URL.EscapedPath()]++
	b.mu.Unlock()

	if !ok {
		http.Error(w, "no such resource", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, reply)
}

func (b *catalogBackend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func newCatalog(t *testing.T, replies map[string]string) (*Catalog, *catalogBackend) {
	t.Helper()
	backend := &catalogBackend{replies: replies, hits: make(map[string]int)}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	return NewCatalog(newTestClient(t, srv), CatalogConfig{TTL: time.Minute}), backend
}

func TestCatalog_SchemasFromArray(t *testing.T) {
	cat, _ := newCatalog(t, map[string]string{
		"/ws/indexes": `["zeta","alpha","mid"]`,
	})

	got, err := cat.Schemas(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, got)
}

func TestCatalog_IndexesFromMapKeepDocumentOrder(t *testing.T) {
	// Given: the backend maps index names to ids
	cat, _ := newCatalog(t, map[string]string{
		"/ws/indexes/s1": `{"orders": 3, "customers": {"id": 1}, "audit": null}`,
	})

	// When: listing indexes
	got, err := cat.Indexes(context.Background(), "s1")

	// Then: the keys come back in document order
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers", "audit"}, got)
}

func TestCatalog_EmptyListing(t *testing.T) {
	cat, _ := newCatalog(t, map[string]string{"/ws/indexes/s1": `{}`})

	got, err := cat.Indexes(context.Background(), "s1")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestCatalog_IndexesRequireSchema(t *testing.T) {
	cat, backend := newCatalog(t, nil)

	_, err := cat.Indexes(context.Background(), "")

	assert.Equal(t, perrors.ErrCodeMissingSchema, perrors.GetCode(err))
	assert.Zero(t, backend.hitCount("/ws/indexes/"))
}

func TestCatalog_FieldsSortedAndCompacted(t *testing.T) {
	cat, _ := newCatalog(t, map[string]string{
		"/ws/indexes/s1/i1/fields": `{
			"title": {"type": "text", "stored": true},
			"id":    {"type": "keyword"}
		}`,
	})

	got, err := cat.Fields(context.Background(), "s1", "i1")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "id", got[0].Name)
	assert.JSONEq(t, `{"type":"keyword"}`, string(got[0].Definition))
	assert.Equal(t, "title", got[1].Name)
	assert.Equal(t, `{"type":"text","stored":true}`, string(got[1].Definition))
}

func TestCatalog_FieldsRequireSelection(t *testing.T) {
	cat, _ := newCatalog(t, nil)

	_, err := cat.Fields(context.Background(), "s1", "")
	assert.Equal(t, perrors.ErrCodeMissingIndex, perrors.GetCode(err))

	_, err = cat.Fields(context.Background(), "", "i1")
	assert.Equal(t, perrors.ErrCodeMissingSchema, perrors.GetCode(err))
}

func TestCatalog_CachesUntilInvalidated(t *testing.T) {
	// Given: a listing fetched once
	cat, backend := newCatalog(t, map[string]string{"/ws/indexes": `["a"]`})
	_, err := cat.Schemas(context.Background())
	require.NoError(t, err)

	// When: fetching again
	_, err = cat.Schemas(context.Background())
	require.NoError(t, err)

	// Then: the cache answered
	assert.Equal(t, 1, backend.hitCount("/ws/indexes"))

	// And: invalidation forces a refetch
	cat.Invalidate()
	_, err = cat.Schemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.hitCount("/ws/indexes"))
}

func TestCatalog_NotFoundIsNotRetried(t *testing.T) {
	cat, backend := newCatalog(t, map[string]string{})

	_, err := cat.Indexes(context.Background(), "ghost")

	require.Error(t, err)
	assert.Equal(t, "no such resource", perrors.Message(err))
	assert.Equal(t, 1, backend.hitCount("/ws/indexes/ghost"))
}

func TestCatalog_MalformedListing(t *testing.T) {
	cat, _ := newCatalog(t, map[string]string{"/ws/indexes": `"just a string"`})

	_, err := cat.Schemas(context.Background())

	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeBackend, perrors.GetCode(err))
	assert.Contains(t, perrors.Message(err), "unexpected response")
}

func TestCatalog_RetriesNetworkFailures(t *testing.T) {
	// Given: a backend that drops the first connection
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = io.WriteString(w, `["s1"]`)
	}))
	t.Cleanup(srv.Close)

	retry := perrors.DefaultRetryConfig()
	retry.InitialDelay = time.Millisecond
	cat := NewCatalog(newTestClient(t, srv), CatalogConfig{Retry: retry})

	// When: listing schemas
	got, err := cat.Schemas(context.Background())

	// Then: the second attempt succeeded
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDecodeNames(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
		wantErr bool
	}{
		{name: "array", payload: `["a","b"]`, want: []string{"a", "b"}},
		{name: "object", payload: `{"b":1,"a":2}`, want: []string{"b", "a"}},
		{name: "nested values", payload: `{"x":{"y":[1,2]},"z":[]}`, want: []string{"x", "z"}},
		{name: "number", payload: `5`, wantErr: true},
		{name: "mixed array", payload: `["a",1]`, wantErr: true},
		{name: "truncated", payload: `["a"`, wantErr: true},
		{name: "empty", payload: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeNames([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
