// Package retrieval turns semantic index hits into the context block handed
// to prompt construction.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/index"
)

// NoResults is returned by GetContext when nothing relevant was found.
const NoResults = "No related information found."

// DefaultLimit is the number of documents fetched when the caller passes 0
// and no WithDefaultLimit option was given.
const DefaultLimit = 3

// Searcher is the query side of the semantic index.
type Searcher interface {
	Query(ctx context.Context, owner activity.OwnerID, text string, limit int) []index.Result
}

// Gateway scopes retrieval to the requesting owner and formats the result.
type Gateway struct {
	searcher  Searcher
	counter   TokenCounter
	maxTokens int
	limit     int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTokenBudget caps the context block at maxTokens as measured by counter.
func WithTokenBudget(counter TokenCounter, maxTokens int) Option {
	return func(g *Gateway) {
		g.counter = counter
		g.maxTokens = maxTokens
	}
}

// WithDefaultLimit sets the number of documents fetched when a caller does
// not ask for a specific count. Non-positive values keep DefaultLimit.
func WithDefaultLimit(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.limit = n
		}
	}
}

// New creates a Gateway over searcher.
func New(searcher Searcher, opts ...Option) *Gateway {
	g := &Gateway{searcher: searcher, limit: DefaultLimit}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Documents returns the raw ordered hits for query.
func (g *Gateway) Documents(ctx context.Context, owner activity.OwnerID, query string, limit int) []index.Result {
	if limit <= 0 {
		limit = g.limit
	}
	return g.searcher.Query(ctx, owner, query, limit)
}

// GetContext returns one "- [date] (type): text" line per hit, or NoResults.
func (g *Gateway) GetContext(ctx context.Context, owner activity.OwnerID, query string, limit int) string {
	return g.Format(g.Documents(ctx, owner, query, limit))
}

// Format renders hits as a context block, honoring the token budget. The
// first line is always kept.
func (g *Gateway) Format(results []index.Result) string {
	var b strings.Builder
	used := 0
	for i, r := range results {
		line := FormatLine(r.Document)
		if g.counter != nil && g.maxTokens > 0 {
			n := g.counter.Count(line)
			if i > 0 && used+n > g.maxTokens {
				break
			}
			used += n
		}
		b.WriteString(line)
	}
	if b.Len() == 0 {
		return NoResults
	}
	return b.String()
}

// FormatLine renders a single document. Missing metadata falls back to
// "N/A" for the date and "info" for the type.
func FormatLine(doc index.Document) string {
	date := doc.Date()
	if date == "" {
		date = "N/A"
	}
	typ := doc.Type()
	if typ == "" {
		typ = "info"
	}
	return fmt.Sprintf("- [%s] (%s): %s\n", date, typ, doc.Text)
}
