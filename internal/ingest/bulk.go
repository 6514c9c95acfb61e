package ingest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"gopkg.in/yaml.v3"
)

// BulkResult is the outcome of one submission in a batch, by input position.
type BulkResult struct {
	Index int
	ID    string
	Err   error
}

// SubmitAll runs Submit for every item on a pool of at most workers
// goroutines. Each item is an independent single-flow submission; a failure
// does not stop the others. Results are in input order.
func (p *Pipeline) SubmitAll(ctx context.Context, items []map[string]any, workers int) ([]BulkResult, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]BulkResult, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i] = BulkResult{Index: i, Err: err}
				return
			}
			id, err := p.Submit(ctx, item)
			results[i] = BulkResult{Index: i, ID: id, Err: err}
		})
		if err != nil {
			wg.Done()
			results[i] = BulkResult{Index: i, Err: err}
		}
	}
	wg.Wait()
	return results, nil
}

// DecodeSubmissions reads a YAML or JSON list of submission objects.
func DecodeSubmissions(r io.Reader) ([]map[string]any, error) {
	var items []map[string]any
	if err := yaml.NewDecoder(r).Decode(&items); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}
	// Unquoted YAML dates decode as timestamps; submissions carry date strings.
	for _, item := range items {
		for k, v := range item {
			if t, ok := v.(time.Time); ok {
				item[k] = t.Format(time.DateOnly)
			}
		}
	}
	return items, nil
}
