package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/index"
)

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// UpsertDocument stores or fully replaces the document keyed by (owner, doc.ID).
func (db *DB) UpsertDocument(ctx context.Context, owner activity.OwnerID, doc index.Document, embedding []float64, model string) error {
	if !owner.Valid() {
		return activity.ErrEmptyOwner
	}
	meta := doc.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO index_documents (owner_id, doc_id, text, metadata, embedding, model, dimensions, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, doc_id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			model = excluded.model,
			dimensions = excluded.dimensions,
			updated_at = excluded.updated_at
	`, owner, doc.ID, doc.Text, string(metaJSON), encodeEmbedding(embedding), model, len(embedding), millis(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// OwnerDocuments returns every indexed document of owner, ordered by id.
func (db *DB) OwnerDocuments(ctx context.Context, owner activity.OwnerID) ([]index.StoredDocument, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT owner_id, doc_id, text, metadata, embedding, model, updated_at
		FROM index_documents WHERE owner_id = ?
		ORDER BY doc_id
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("owner documents: %w", err)
	}
	defer rows.Close()

	var docs []index.StoredDocument
	for rows.Next() {
		var d index.StoredDocument
		var metaJSON string
		var blob []byte
		var updated int64
		if err := rows.Scan(&d.OwnerID, &d.ID, &d.Text, &metaJSON, &blob, &d.Model, &updated); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", d.ID, err)
		}
		d.Embedding = decodeEmbedding(blob)
		d.UpdatedAt = fromMillis(updated)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CountDocuments returns how many documents owner has indexed.
func (db *DB) CountDocuments(ctx context.Context, owner activity.OwnerID) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_documents WHERE owner_id = ?", owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// DocumentTexts returns up to limit document texts across all owners, most
// recently updated first. It seeds the TF-IDF vocabulary.
func (db *DB) DocumentTexts(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5000
	}
	rows, err := db.QueryContext(ctx,
		"SELECT text FROM index_documents ORDER BY updated_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query document texts: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan document text: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

// DocumentOwners returns every owner with at least one indexed document.
func (db *DB) DocumentOwners(ctx context.Context) ([]activity.OwnerID, error) {
	rows, err := db.QueryContext(ctx, "SELECT DISTINCT owner_id FROM index_documents ORDER BY owner_id")
	if err != nil {
		return nil, fmt.Errorf("query document owners: %w", err)
	}
	defer rows.Close()

	var owners []activity.OwnerID
	for rows.Next() {
		var o activity.OwnerID
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan document owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}
