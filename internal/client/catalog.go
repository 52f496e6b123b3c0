package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

// Catalog cache defaults.
const (
	DefaultCatalogTTL  = 30 * time.Second
	DefaultCatalogSize = 64
)

// Field is one entry of an index's field table.
type Field struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
}

// CatalogConfig configures a Catalog.
type CatalogConfig struct {
	TTL   time.Duration
	Size  int
	Retry perrors.RetryConfig
}

// Catalog lists schemas, indexes and fields. Results are cached for TTL
// and concurrent lookups of the same key share one request.
type Catalog struct {
	client *Client
	retry  perrors.RetryConfig

	names  *expirable.LRU[string, []string]
	fields *expirable.LRU[string, []Field]
	group  singleflight.Group
}

// NewCatalog creates a catalog backed by c.
func NewCatalog(c *Client, cfg CatalogConfig) *Catalog {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCatalogTTL
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultCatalogSize
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry = perrors.DefaultRetryConfig()
	}

	return &Catalog{
		client: c,
		retry:  cfg.Retry,
		names:  expirable.NewLRU[string, []string](cfg.Size, nil, cfg.TTL),
		fields: expirable.NewLRU[string, []Field](cfg.Size, nil, cfg.TTL),
	}
}

// Schemas returns the schema names in backend order.
func (c *Catalog) Schemas(ctx context.Context) ([]string, error) {
	return c.lookupNames(ctx, "schemas", "ws", "indexes")
}

// Indexes returns the index names of schema in backend order.
func (c *Catalog) Indexes(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		return nil, perrors.New(perrors.ErrCodeMissingSchema, "Please select a schema.", nil)
	}
	return c.lookupNames(ctx, "indexes\x00"+schema, "ws", "indexes", schema)
}

// Fields returns the field table of schema/index, sorted by name.
func (c *Catalog) Fields(ctx context.Context, schema, index string) ([]Field, error) {
	if schema == "" {
		return nil, perrors.New(perrors.ErrCodeMissingSchema, "Please select a schema.", nil)
	}
	if index == "" {
		return nil, perrors.New(perrors.ErrCodeMissingIndex, "Please select an index.", nil)
	}

	key := "fields\x00" + schema + "\x00" + index
	if cached, ok := c.fields.Get(key); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return perrors.RetryWithResult(ctx, c.retry, func() ([]Field, error) {
			payload, err := c.client.getJSON(ctx, "ws", "indexes", schema, index, "fields")
			if err != nil {
				return nil, err
			}
			return decodeFields(payload)
		})
	})
	if err != nil {
		return nil, err
	}

	result := v.([]Field)
	c.fields.Add(key, result)
	return result, nil
}

// Invalidate drops every cached listing.
func (c *Catalog) Invalidate() {
	c.names.Purge()
	c.fields.Purge()
}

func (c *Catalog) lookupNames(ctx context.Context, key string, segments ...string) ([]string, error) {
	if cached, ok := c.names.Get(key); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return perrors.RetryWithResult(ctx, c.retry, func() ([]string, error) {
			payload, err := c.client.getJSON(ctx, segments...)
			if err != nil {
				return nil, err
			}
			return decodeNames(payload)
		})
	})
	if err != nil {
		return nil, err
	}

	result := v.([]string)
	c.names.Add(key, result)
	return result, nil
}

// decodeNames reads a JSON array of strings, or the keys of a JSON object
// in document order.
func decodeNames(payload []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	tok, err := dec.Token()
	if err != nil {
		return nil, malformed(payload, err)
	}

	names := []string{}
	switch tok {
	case json.Delim('['):
		for dec.More() {
			var name string
			if err := dec.Decode(&name); err != nil {
				return nil, malformed(payload, err)
			}
			names = append(names, name)
		}
	case json.Delim('{'):
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, malformed(payload, err)
			}
			name, _ := keyTok.(string)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, malformed(payload, err)
			}
			names = append(names, name)
		}
	default:
		return nil, malformed(payload, fmt.Errorf("expected array or object, got %v", tok))
	}
	if _, err := dec.Token(); err != nil {
		return nil, malformed(payload, err)
	}
	return names, nil
}

func decodeFields(payload []byte) ([]Field, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, malformed(payload, err)
	}

	fields := make([]Field, 0, len(raw))
	for name, def := range raw {
		var compact bytes.Buffer
		if err := json.Compact(&compact, def); err != nil {
			return nil, malformed(payload, err)
		}
		fields = append(fields, Field{Name: name, Definition: compact.Bytes()})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

func malformed(payload []byte, err error) error {
	const maxShown = 120
	shown := string(payload)
	if len(shown) > maxShown {
		shown = shown[:maxShown] + "..."
	}
	return perrors.BackendError(fmt.Sprintf("unexpected response: %s", shown), err)
}
