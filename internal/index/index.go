// Package index is an owner-scoped semantic document index.
//
// Documents are keyed by (owner, id) and replaced wholesale on upsert. Every
// operation takes the owner as a required argument; a query never sees
// documents of another owner. Queries are best-effort: failures of the
// embedder or the backing store degrade to an empty result.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/observability"
)

// DefaultLimit is used when a query asks for a non-positive number of results.
const DefaultLimit = 3

// Metadata keys every document is expected to carry.
const (
	MetaType = "type"
	MetaDate = "date"
)

// Document is an indexed piece of user history.
type Document struct {
	ID       string            `json:"id"`
	OwnerID  activity.OwnerID  `json:"owner_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Type returns the document's type metadata, or "" when absent.
func (d Document) Type() string { return d.Metadata[MetaType] }

// Date returns the document's date metadata, or "" when absent.
func (d Document) Date() string { return d.Metadata[MetaDate] }

// StoredDocument is a document together with its embedding.
type StoredDocument struct {
	Document
	Embedding []float64
	Model     string
	UpdatedAt time.Time
}

// Store persists documents and their vectors.
type Store interface {
	// UpsertDocument inserts or fully replaces the document keyed by (owner, doc.ID).
	UpsertDocument(ctx context.Context, owner activity.OwnerID, doc Document, embedding []float64, model string) error
	// OwnerDocuments returns every document of owner and nothing else.
	OwnerDocuments(ctx context.Context, owner activity.OwnerID) ([]StoredDocument, error)
}

// Result is a query hit.
type Result struct {
	Document  Document `json:"document"`
	Relevance float64  `json:"relevance"`
}

// Index combines an embedder with a document store.
type Index struct {
	store    Store
	embedder Embedder
}

// New creates an Index.
func New(store Store, embedder Embedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// Upsert embeds text and stores it under (owner, id), replacing any previous
// text and metadata. Empty text is a no-op.
func (ix *Index) Upsert(ctx context.Context, owner activity.OwnerID, id, text string, metadata map[string]string) error {
	if text == "" {
		observability.RecordUpsert("skipped")
		return nil
	}
	if !owner.Valid() {
		observability.RecordUpsert("error")
		return activity.ErrEmptyOwner
	}
	if id == "" {
		observability.RecordUpsert("error")
		return errors.New("document id required")
	}
	if ix.embedder == nil {
		observability.RecordUpsert("error")
		return errors.New("no embedder configured")
	}

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		observability.RecordUpsert("error")
		return fmt.Errorf("embed document %s: %w", id, err)
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	doc := Document{ID: id, OwnerID: owner, Text: text, Metadata: meta}
	if err := ix.store.UpsertDocument(ctx, owner, doc, vec, ix.embedder.Model()); err != nil {
		observability.RecordUpsert("error")
		return fmt.Errorf("store document %s: %w", id, err)
	}

	observability.RecordUpsert("ok")
	return nil
}

// Query returns up to limit documents of owner ordered by decreasing
// relevance to text. It never fails: errors are logged and yield no results.
func (ix *Index) Query(ctx context.Context, owner activity.OwnerID, text string, limit int) []Result {
	results, err := ix.query(ctx, owner, text, limit)
	if err != nil {
		slog.Warn("semantic query degraded to empty result", "owner", owner, "error", err)
		observability.RecordQuery(true)
		return nil
	}
	observability.RecordQuery(false)
	return results
}

func (ix *Index) query(ctx context.Context, owner activity.OwnerID, text string, limit int) ([]Result, error) {
	if !owner.Valid() {
		return nil, activity.ErrEmptyOwner
	}
	if ix.embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	queryVec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := ix.store.OwnerDocuments(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	model := ix.embedder.Model()
	results := make([]Result, 0, len(docs))
	stale := 0
	for _, d := range docs {
		// Never surface another owner's document, whatever the store returned.
		if d.OwnerID != owner {
			continue
		}
		vec := d.Embedding
		if d.Model != model {
			// Vectors from another embedder live in a different space.
			stale++
			if vec, err = ix.embedder.Embed(ctx, d.Text); err != nil {
				return nil, fmt.Errorf("re-embed document %s: %w", d.ID, err)
			}
		}
		results = append(results, Result{
			Document:  d.Document,
			Relevance: CosineSimilarity(queryVec, vec),
		})
	}
	if stale > 0 {
		slog.Warn("documents embedded with another model, re-embedded for this query; run reindex to persist",
			"owner", owner, "count", stale, "model", model)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Reembed rewrites every document of owner whose vector came from a
// different embedder and returns how many were rewritten.
func (ix *Index) Reembed(ctx context.Context, owner activity.OwnerID) (int, error) {
	if !owner.Valid() {
		return 0, activity.ErrEmptyOwner
	}
	if ix.embedder == nil {
		return 0, errors.New("no embedder configured")
	}

	docs, err := ix.store.OwnerDocuments(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("load documents: %w", err)
	}

	model := ix.embedder.Model()
	n := 0
	for _, d := range docs {
		if d.Model == model || d.OwnerID != owner {
			continue
		}
		vec, err := ix.embedder.Embed(ctx, d.Text)
		if err != nil {
			return n, fmt.Errorf("embed document %s: %w", d.ID, err)
		}
		if err := ix.store.UpsertDocument(ctx, owner, d.Document, vec, model); err != nil {
			return n, fmt.Errorf("store document %s: %w", d.ID, err)
		}
		n++
	}
	return n, nil
}
