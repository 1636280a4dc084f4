package parser

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ukaddresskit/ukaddresskit/internal/reconcile"
)

// BatchResult is the outcome of structuring one address in a batch.
// Err carries the per-row failure; rows never abort each other.
type BatchResult struct {
	Input   string                      `json:"input"`
	Address reconcile.StructuredAddress `json:"address"`
	Err     string                      `json:"error,omitempty"`
}

// StructuredBatch structures many addresses concurrently over at most
// workers goroutines. Rows are independent: a row that fails to tag is
// reported in its result and the rest of the batch proceeds. Results
// keep the input order. The only error returned is context
// cancellation.
func (p *Parser) StructuredBatch(ctx context.Context, texts []string, workers int) ([]BatchResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			break
		}
		i, text := i, text
		g.Go(func() error {
			addr, err := p.Structured(text)
			results[i] = BatchResult{Input: text, Address: addr}
			if err != nil {
				results[i].Err = err.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
