// Package store persists documents and their outlines in SQLite through bun.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/chestnut/internal/document"
	"github.com/dgallion1/chestnut/internal/outline"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("store: not found")

// Record is one ingested document together with its outline.
type Record struct {
	Document    document.Document
	Outline     outline.ParsedBody
	Filename    string
	ContentHash string
}

// Summary is a listing row without content or sections.
type Summary struct {
	FileID      string    `json:"file_id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	Sections    int       `json:"sections"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type documentModel struct {
	bun.BaseModel `bun:"table:documents"`

	FileID      string         `bun:"file_id,pk"`
	Name        string         `bun:"name,notnull"`
	Metadata    map[string]any `bun:"metadata,type:json"`
	Content     *string        `bun:"content"`
	ContentHash string         `bun:"content_hash,notnull"`
	Filename    string         `bun:"filename,notnull"`
	CreatedAt   time.Time      `bun:"created_at,nullzero"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero"`
}

type outlineModel struct {
	bun.BaseModel `bun:"table:outlines"`

	FileID      string            `bun:"file_id,pk"`
	Title       string            `bun:"title,notnull"`
	HeaderIndex []string          `bun:"header_index,type:json"`
	Sections    []outline.Section `bun:"sections,type:json"`
}

// Store is safe for concurrent use; bun pools connections.
type Store struct {
	db *bun.DB
}

// Open connects to a SQLite database. The DSN is passed to go-sqlite3 as is.
func Open(dsn string) (*Store, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return New(bun.NewDB(sqldb, sqlitedialect.New())), nil
}

// New wraps an existing bun database.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Init creates the tables and indexes if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	models := []any{(*documentModel)(nil), (*outlineModel)(nil)}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	if _, err := s.db.NewCreateIndex().Model((*documentModel)(nil)).
		Index("documents_content_hash_idx").IfNotExists().Column("content_hash").Exec(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if _, err := s.db.NewCreateIndex().Model((*outlineModel)(nil)).
		Index("outlines_title_idx").IfNotExists().Column("title").Exec(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the document and outline rows in one transaction, replacing
// any previous version with the same file id.
func (s *Store) Save(ctx context.Context, rec Record) error {
	fileID := rec.Document.FileID()
	if fileID == "" {
		return errors.New("store: record has no file id")
	}

	now := time.Now().UTC()
	doc := &documentModel{
		FileID:      fileID,
		Name:        rec.Document.Meta().Name(),
		Metadata:    rec.Document.Meta().Values(),
		ContentHash: rec.ContentHash,
		Filename:    rec.Filename,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if content, ok := rec.Document.Content(); ok {
		doc.Content = &content
	}
	out := &outlineModel{
		FileID:      fileID,
		Title:       rec.Outline.ID(),
		HeaderIndex: rec.Outline.Index(),
		Sections:    rec.Outline.Content(),
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(doc).
			On("CONFLICT (file_id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("metadata = EXCLUDED.metadata").
			Set("content = EXCLUDED.content").
			Set("content_hash = EXCLUDED.content_hash").
			Set("filename = EXCLUDED.filename").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}
		if _, err := tx.NewInsert().Model(out).
			On("CONFLICT (file_id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("header_index = EXCLUDED.header_index").
			Set("sections = EXCLUDED.sections").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert outline: %w", err)
		}
		return nil
	})
}

// GetDocument loads a document by file id.
func (s *Store) GetDocument(ctx context.Context, fileID string) (document.Document, error) {
	var model documentModel
	if err := s.db.NewSelect().Model(&model).Where("file_id = ?", fileID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.Document{}, ErrNotFound
		}
		return document.Document{}, fmt.Errorf("get document: %w", err)
	}
	return model.toDocument(), nil
}

// GetOutline loads the outline stored for a file id.
func (s *Store) GetOutline(ctx context.Context, fileID string) (outline.ParsedBody, error) {
	var model outlineModel
	if err := s.db.NewSelect().Model(&model).Where("file_id = ?", fileID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return outline.ParsedBody{}, ErrNotFound
		}
		return outline.ParsedBody{}, fmt.Errorf("get outline: %w", err)
	}
	return model.toBody(), nil
}

// FindByTitle returns the file ids whose outline carries exactly this title.
func (s *Store) FindByTitle(ctx context.Context, title string) ([]string, error) {
	var ids []string
	if err := s.db.NewSelect().Model((*outlineModel)(nil)).
		Column("file_id").
		Where("title = ?", title).
		OrderExpr("file_id ASC").
		Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("find by title: %w", err)
	}
	return ids, nil
}

// FindByHash returns the file id of a document with the given content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, error) {
	var fileID string
	err := s.db.NewSelect().Model((*documentModel)(nil)).
		Column("file_id").
		Where("content_hash = ?", hash).
		Limit(1).
		Scan(ctx, &fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("find by hash: %w", err)
	}
	return fileID, nil
}

// List returns document summaries ordered by most recent update.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Summary, error) {
	var docs []documentModel
	if err := s.db.NewSelect().Model(&docs).
		ExcludeColumn("content").
		OrderExpr("updated_at DESC, file_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return []Summary{}, nil
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.FileID
	}
	var outlines []outlineModel
	if err := s.db.NewSelect().Model(&outlines).
		Where("file_id IN (?)", bun.In(ids)).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list outlines: %w", err)
	}
	byID := make(map[string]outlineModel, len(outlines))
	for _, o := range outlines {
		byID[o.FileID] = o
	}

	out := make([]Summary, len(docs))
	for i, d := range docs {
		o := byID[d.FileID]
		out[i] = Summary{
			FileID:      d.FileID,
			Name:        d.Name,
			Title:       o.Title,
			Filename:    d.Filename,
			ContentHash: d.ContentHash,
			Sections:    len(o.HeaderIndex),
			UpdatedAt:   d.UpdatedAt,
		}
	}
	return out, nil
}

// Delete removes a document and its outline.
func (s *Store) Delete(ctx context.Context, fileID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*documentModel)(nil)).Where("file_id = ?", fileID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.NewDelete().Model((*outlineModel)(nil)).Where("file_id = ?", fileID).Exec(ctx); err != nil {
			return fmt.Errorf("delete outline: %w", err)
		}
		return nil
	})
}

func (m *documentModel) toDocument() document.Document {
	meta := document.NewMeta(m.Name, m.Metadata)
	if m.Content == nil {
		return document.FromMeta(meta)
	}
	return document.Load(meta, *m.Content)
}

func (m *outlineModel) toBody() outline.ParsedBody {
	return outline.NewParsedBody(m.Title, m.HeaderIndex, m.Sections)
}
