package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"ai-trainer-be/pkg/vectordb"
)

// Client is a ChromaDB HTTP client implementing the vectordb.Index contract.
// It resolves collection names to ids lazily and caches the mapping, since
// the Chroma API addresses add/query/delete by collection id.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client

	mu  sync.RWMutex
	ids map[string]string // collection name -> id
}

type Config struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

type collection struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type queryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents,omitempty"`
	Metadatas [][]map[string]interface{} `json:"metadatas,omitempty"`
	Distances [][]float32                `json:"distances,omitempty"`
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		ids: make(map[string]string),
	}
}

// Heartbeat checks that the Chroma server is reachable.
func (c *Client) Heartbeat(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "GET", "/api/v1/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("failed to reach chroma: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chroma heartbeat failed: status %d", resp.StatusCode)
	}
	return nil
}

// EnsureCollection fetches the collection, creating it on 404. Chroma
// returns 404 for unknown collections, so get-then-create is the cheapest
// way to express get-or-create.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	_, err := c.getOrCreateCollection(ctx, name)
	return err
}

func (c *Client) getOrCreateCollection(ctx context.Context, name string) (string, error) {
	c.mu.RLock()
	id, ok := c.ids[name]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	col, err := c.getCollection(ctx, name)
	if err != nil {
		if err != vectordb.ErrCollectionNotFound {
			return "", err
		}
		col, err = c.createCollection(ctx, name)
		if err != nil {
			return "", err
		}
	}

	c.mu.Lock()
	c.ids[name] = col.ID
	c.mu.Unlock()
	return col.ID, nil
}

func (c *Client) getCollection(ctx context.Context, name string) (*collection, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/collections/%s", name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, vectordb.ErrCollectionNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get collection: status %d", resp.StatusCode)
	}

	var col collection
	if err := json.NewDecoder(resp.Body).Decode(&col); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}

	return &col, nil
}

func (c *Client) createCollection(ctx context.Context, name string) (*collection, error) {
	body := map[string]interface{}{
		"name":     name,
		"metadata": map[string]interface{}{"source": "ai-trainer"},
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v1/collections", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to create collection: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var col collection
	if err := json.NewDecoder(resp.Body).Decode(&col); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}

	return &col, nil
}

func (c *Client) Add(ctx context.Context, collectionName string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	colID, err := c.getOrCreateCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"embeddings": embeddings,
		"metadatas":  metadatas,
	}

	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/collections/%s/add", colID), body)
	if err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to add documents: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

func (c *Client) Query(ctx context.Context, collectionName string, embedding []float32, k int) (*vectordb.QueryResult, error) {
	col, err := c.getCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"query_embeddings": [][]float32{embedding},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}

	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/collections/%s/query", col.ID), body)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to query collection: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var raw queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}

	// Chroma nests results per query embedding; we always send exactly one.
	result := &vectordb.QueryResult{}
	if len(raw.Documents) > 0 {
		result.Documents = raw.Documents[0]
	}
	if len(raw.Distances) > 0 {
		result.Distances = raw.Distances[0]
	}
	if len(raw.Metadatas) > 0 {
		result.Metadatas = raw.Metadatas[0]
	}

	return result, nil
}

func (c *Client) Delete(ctx context.Context, collectionName string, ids []string) error {
	colID, err := c.getOrCreateCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"ids": ids,
	}

	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/collections/%s/delete", colID), body)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("failed to delete documents: status %d", resp.StatusCode)
	}

	return nil
}

// doRequest performs an HTTP request against the Chroma server.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	return c.httpClient.Do(req)
}

var _ vectordb.Index = &Client{}
