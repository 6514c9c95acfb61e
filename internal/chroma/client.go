// Package chroma talks to a Chroma vector database over its v2 REST API.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/vectorstore"
)

const (
	DefaultBaseURL  = "https://api.trychroma.com"
	DefaultTenant   = "default_tenant"
	DefaultDatabase = "default_database"

	tokenHeader = "x-chroma-token"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Tenant     string
	Database   string
	Collection string
	HTTPClient *http.Client
}

// Client is bound to a single collection, resolved once by Open.
type Client struct {
	options      Options
	client       *http.Client
	collectionID string
}

var _ vectorstore.Store = (*Client)(nil)

// Open gets or creates the configured collection and returns a client bound
// to it.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.Collection == "" {
		return nil, errors.New("chroma: collection name is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Tenant == "" {
		opts.Tenant = DefaultTenant
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	c := &Client{options: opts, client: opts.HTTPClient}
	if c.client == nil {
		c.client = &http.Client{}
	}

	req := map[string]any{
		"name":          opts.Collection,
		"get_or_create": true,
	}
	var rsp collectionResponse
	if err := c.do(ctx, http.MethodPost, c.databasePath()+"/collections", req, &rsp); err != nil {
		return nil, fmt.Errorf("chroma: get or create collection %q: %w", opts.Collection, err)
	}
	if rsp.ID == "" {
		return nil, fmt.Errorf("chroma: collection %q returned no id", opts.Collection)
	}
	c.collectionID = rsp.ID
	return c, nil
}

// CollectionID returns the server-side id of the bound collection.
func (c *Client) CollectionID() string { return c.collectionID }

func (c *Client) Add(ctx context.Context, rec models.StoredRecord) error {
	req := addRequest{
		IDs:        []string{rec.ID},
		Embeddings: [][]float32{rec.Embedding},
		Documents:  []string{rec.Document},
		Metadatas:  []map[string]any{rec.Metadata},
	}
	return c.do(ctx, http.MethodPost, c.collectionPath()+"/add", req, nil)
}

func (c *Client) QueryByVector(ctx context.Context, embedding []float32, k int) ([]vectorstore.Hit, error) {
	if k < 1 {
		return nil, nil
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        k,
		Include:         []string{"documents", "metadatas", "distances"},
	}
	var rsp queryResponse
	if err := c.do(ctx, http.MethodPost, c.collectionPath()+"/query", req, &rsp); err != nil {
		return nil, err
	}
	if len(rsp.IDs) == 0 {
		return nil, nil
	}

	ids := rsp.IDs[0]
	hits := make([]vectorstore.Hit, 0, len(ids))
	for i, id := range ids {
		hit := vectorstore.Hit{Record: models.StoredRecord{ID: id}}
		if doc := nestedAt(rsp.Documents, i); doc != nil {
			hit.Record.Document = *doc
		}
		hit.Record.Metadata = nestedAt(rsp.Metadatas, i)
		hit.Distance = nestedAt(rsp.Distances, i)
		if hit.Record.Metadata == nil {
			hit.Record.Metadata = map[string]any{}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (c *Client) GetAll(ctx context.Context) ([]models.StoredRecord, error) {
	req := getRequest{Include: []string{"documents", "metadatas"}}
	var rsp getResponse
	if err := c.do(ctx, http.MethodPost, c.collectionPath()+"/get", req, &rsp); err != nil {
		return nil, err
	}

	records := make([]models.StoredRecord, 0, len(rsp.IDs))
	for i, id := range rsp.IDs {
		rec := models.StoredRecord{ID: id}
		if i < len(rsp.Documents) && rsp.Documents[i] != nil {
			rec.Document = *rsp.Documents[i]
		}
		if i < len(rsp.Metadatas) && rsp.Metadatas[i] != nil {
			rec.Metadata = rsp.Metadatas[i]
		} else {
			rec.Metadata = map[string]any{}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) databasePath() string {
	return fmt.Sprintf("/api/v2/tenants/%s/databases/%s",
		url.PathEscape(c.options.Tenant), url.PathEscape(c.options.Database))
}

func (c *Client) collectionPath() string {
	return c.databasePath() + "/collections/" + url.PathEscape(c.collectionID)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.options.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.options.APIKey != "" {
		req.Header.Set(tokenHeader, c.options.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chroma request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.message() != "" {
			return fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, apiErr.message())
		}
		return fmt.Errorf("chroma returned status %d", resp.StatusCode)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// nestedAt reads element i of the first inner list of a per-query result.
func nestedAt[T any](lists [][]T, i int) T {
	var zero T
	if len(lists) == 0 || i >= len(lists[0]) {
		return zero
	}
	return lists[0][i]
}
