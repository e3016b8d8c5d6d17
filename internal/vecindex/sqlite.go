package vecindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"estateqa/internal/domain"

	_ "modernc.org/sqlite"
)

// The persisted index is a single SQLite file: one identity row naming the
// embedding model and dimension the vectors were produced under, and one
// row per listing carrying the exact embedded text, its metadata and its
// vector. Keeping text and vector in the same row is what lets the
// similarity guarantee survive a round trip.
const indexSchema = `
CREATE TABLE IF NOT EXISTS index_meta (
    model TEXT NOT NULL,
    dimension INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS listings (
    id INTEGER PRIMARY KEY,
    text TEXT NOT NULL,
    metadata TEXT,
    embedding BLOB NOT NULL
);
`

// Save persists the index and its documents to a SQLite file at path,
// replacing any previous contents. Every indexed id must have a matching
// document.
func Save(ctx context.Context, path string, idx *Index, docs []domain.Document) error {
	byID := make(map[int64]domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, indexSchema); err != nil {
		return fmt.Errorf("create index schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_meta`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM listings`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO index_meta(model, dimension) VALUES(?, ?)`, idx.Model(), idx.Dimension()); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO listings(id, text, metadata, embedding) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range idx.entries() {
		doc, ok := byID[e.ID]
		if !ok {
			return fmt.Errorf("%w: indexed id %d has no document", domain.ErrUnknownDocument, e.ID)
		}
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.ID, doc.Text, string(meta), encodeVector(e.Vector)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load restores an index and its documents from a SQLite file. It fails
// with ErrIndexVersion when the stored model identity differs from
// wantModel: searching an index with vectors from another embedding space
// would silently corrupt ranking.
func Load(ctx context.Context, path string, wantModel string) (*Index, []domain.Document, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open index file: %w", err)
	}
	defer db.Close()

	var model string
	var dim int
	err = db.QueryRowContext(ctx, `SELECT model, dimension FROM index_meta`).Scan(&model, &dim)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("%w: %s has no identity row", domain.ErrIndexBuild, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s is not a persisted index: %v", domain.ErrIndexBuild, path, err)
	}
	if model != wantModel {
		return nil, nil, fmt.Errorf("%w: index built with %q, embedder in use is %q", domain.ErrIndexVersion, model, wantModel)
	}

	rows, err := db.QueryContext(ctx, `SELECT id, text, metadata, embedding FROM listings ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var entries []Entry
	var docs []domain.Document
	for rows.Next() {
		var id int64
		var text, metaJSON string
		var blob []byte
		if err := rows.Scan(&id, &text, &metaJSON, &blob); err != nil {
			return nil, nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: id %d: %v", domain.ErrIndexBuild, id, err)
		}
		if len(vec) != dim {
			return nil, nil, fmt.Errorf("%w: id %d has dimension %d, identity row says %d", domain.ErrIndexBuild, id, len(vec), dim)
		}
		var meta map[string]string
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
				return nil, nil, fmt.Errorf("%w: id %d: bad metadata: %v", domain.ErrIndexBuild, id, err)
			}
		}
		entries = append(entries, Entry{ID: id, Vector: vec})
		docs = append(docs, domain.Document{ID: id, Text: text, Metadata: meta})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	idx, err := Build(model, entries)
	if err != nil {
		return nil, nil, err
	}
	return idx, docs, nil
}
