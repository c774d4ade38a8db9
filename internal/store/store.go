// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists documents, jobs, and revision requests in SQLite.
// Implements: prd007-storage (R1-R4);
//
//	docs/ARCHITECTURE § Storage.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// Store manages the draft-engine SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at cfg.Path. Parent directories
// are created as needed and the schema is bootstrapped on first open.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path not configured")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			abstract TEXT,
			content TEXT NOT NULL,
			keywords TEXT,
			type TEXT NOT NULL,
			word_count INTEGER NOT NULL,
			citation_style TEXT NOT NULL,
			novelty_score REAL,
			novelty_class TEXT,
			quality_score REAL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS authors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL REFERENCES documents(id),
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			affiliation TEXT,
			email TEXT,
			orcid TEXT,
			corresponding INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_authors_document ON authors(document_id)`,
		`CREATE TABLE IF NOT EXISTS citations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL REFERENCES documents(id),
			position INTEGER NOT NULL,
			key TEXT NOT NULL,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_document ON citations(document_id)`,
		`CREATE TABLE IF NOT EXISTS figures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL REFERENCES documents(id),
			position INTEGER NOT NULL,
			caption TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_figures_document ON figures(document_id)`,
		`CREATE TABLE IF NOT EXISTS tabular (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL REFERENCES documents(id),
			position INTEGER NOT NULL,
			caption TEXT NOT NULL,
			columns TEXT,
			rows TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tabular_document ON tabular(document_id)`,
		`CREATE TABLE IF NOT EXISTS generation_jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			status TEXT NOT NULL,
			phase TEXT,
			progress INTEGER NOT NULL DEFAULT 0,
			eta_seconds INTEGER NOT NULL DEFAULT 0,
			document_id INTEGER,
			novelty_score REAL,
			quality_score REAL,
			error TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS revision_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL REFERENCES documents(id),
			type TEXT NOT NULL,
			instructions TEXT NOT NULL,
			preserve_argument INTEGER NOT NULL DEFAULT 0,
			preserve_figures INTEGER NOT NULL DEFAULT 0,
			preserve_word_count INTEGER NOT NULL DEFAULT 0,
			preserve_citations INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			new_document_id INTEGER,
			error TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// CreateJob inserts a job and assigns its ID and timestamps.
func (s *Store) CreateJob(ctx context.Context, job *types.GenerationJob) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_jobs (status, phase, progress, eta_seconds, document_id, novelty_score, quality_score, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.Status, job.Phase, job.Progress, job.ETASeconds, job.DocumentID,
		job.NoveltyScore, job.QualityScore, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	job.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading job id: %w", err)
	}
	return nil
}

// UpdateJob overwrites a job row and refreshes its updated_at timestamp.
func (s *Store) UpdateJob(ctx context.Context, job *types.GenerationJob) error {
	job.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE generation_jobs
		 SET status = ?, phase = ?, progress = ?, eta_seconds = ?, document_id = ?, novelty_score = ?, quality_score = ?, error = ?, updated_at = ?
		 WHERE id = ?`,
		job.Status, job.Phase, job.Progress, job.ETASeconds, job.DocumentID,
		job.NoveltyScore, job.QualityScore, job.Error, job.UpdatedAt, job.ID)
	if err != nil {
		return fmt.Errorf("updating job %d: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating job %d: %w", job.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("job %d not found", job.ID)
	}
	return nil
}

// GetJob loads a job by id.
func (s *Store) GetJob(ctx context.Context, id int64) (*types.GenerationJob, error) {
	var job types.GenerationJob
	var phase, errMsg sql.NullString
	var docID sql.NullInt64
	var novelty, quality sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, phase, progress, eta_seconds, document_id, novelty_score, quality_score, error, created_at, updated_at
		 FROM generation_jobs WHERE id = ?`, id).
		Scan(&job.ID, &job.Status, &phase, &job.Progress, &job.ETASeconds,
			&docID, &novelty, &quality, &errMsg, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading job %d: %w", id, err)
	}
	job.Phase = phase.String
	job.Error = errMsg.String
	job.DocumentID = docID.Int64
	job.NoveltyScore = novelty.Float64
	job.QualityScore = quality.Float64
	return &job, nil
}

// CreateDocumentSet inserts a document and all of its children in a
// single transaction, assigning IDs and document references as it goes.
func (s *Store) CreateDocumentSet(ctx context.Context, doc *types.Document, authors []types.Author, citations []types.Citation, figures []types.Figure, tables []types.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	keywordsJSON, _ := json.Marshal(doc.Keywords)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (title, abstract, content, keywords, type, word_count, citation_style, novelty_score, novelty_class, quality_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Title, doc.Abstract, doc.Content, string(keywordsJSON), doc.Type, doc.WordCount,
		doc.CitationStyle, doc.NoveltyScore, doc.NoveltyClass, doc.QualityScore, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	doc.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading document id: %w", err)
	}

	for i := range authors {
		authors[i].DocumentID = doc.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO authors (document_id, position, name, affiliation, email, orcid, corresponding)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			authors[i].DocumentID, authors[i].Position, authors[i].Name,
			authors[i].Affiliation, authors[i].Email, authors[i].ORCID, authors[i].Corresponding)
		if err != nil {
			return fmt.Errorf("inserting author %d: %w", i+1, err)
		}
		authors[i].ID, _ = res.LastInsertId()
	}

	for i := range citations {
		citations[i].DocumentID = doc.ID
		recordJSON, err := json.Marshal(citations[i].Record)
		if err != nil {
			return fmt.Errorf("encoding citation %s: %w", citations[i].Key, err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO citations (document_id, position, key, record) VALUES (?, ?, ?, ?)`,
			citations[i].DocumentID, citations[i].Position, citations[i].Key, string(recordJSON))
		if err != nil {
			return fmt.Errorf("inserting citation %s: %w", citations[i].Key, err)
		}
		citations[i].ID, _ = res.LastInsertId()
	}

	for i := range figures {
		figures[i].DocumentID = doc.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO figures (document_id, position, caption, description) VALUES (?, ?, ?, ?)`,
			figures[i].DocumentID, figures[i].Position, figures[i].Caption, figures[i].Description)
		if err != nil {
			return fmt.Errorf("inserting figure %d: %w", i+1, err)
		}
		figures[i].ID, _ = res.LastInsertId()
	}

	for i := range tables {
		tables[i].DocumentID = doc.ID
		columnsJSON, _ := json.Marshal(tables[i].Columns)
		rowsJSON, _ := json.Marshal(tables[i].Rows)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tabular (document_id, position, caption, columns, rows) VALUES (?, ?, ?, ?, ?)`,
			tables[i].DocumentID, tables[i].Position, tables[i].Caption, string(columnsJSON), string(rowsJSON))
		if err != nil {
			return fmt.Errorf("inserting table %d: %w", i+1, err)
		}
		tables[i].ID, _ = res.LastInsertId()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document set: %w", err)
	}
	return nil
}

// GetDocument loads a document by id.
func (s *Store) GetDocument(ctx context.Context, id int64) (*types.Document, error) {
	var doc types.Document
	var abstract, keywords sql.NullString
	var novelty, quality sql.NullFloat64
	var class sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, abstract, content, keywords, type, word_count, citation_style, novelty_score, novelty_class, quality_score, created_at, updated_at
		 FROM documents WHERE id = ?`, id).
		Scan(&doc.ID, &doc.Title, &abstract, &doc.Content, &keywords, &doc.Type, &doc.WordCount,
			&doc.CitationStyle, &novelty, &class, &quality, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading document %d: %w", id, err)
	}
	doc.Abstract = abstract.String
	doc.NoveltyScore = novelty.Float64
	doc.NoveltyClass = types.NoveltyClass(class.String)
	doc.QualityScore = quality.Float64
	if keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &doc.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords for document %d: %w", id, err)
		}
	}
	return &doc, nil
}

// AuthorsByDocument returns a document's authors in byline order.
func (s *Store) AuthorsByDocument(ctx context.Context, documentID int64) ([]types.Author, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, position, name, affiliation, email, orcid, corresponding
		 FROM authors WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading authors for document %d: %w", documentID, err)
	}
	defer rows.Close()
	var authors []types.Author
	for rows.Next() {
		var a types.Author
		var affiliation, email, orcid sql.NullString
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.Position, &a.Name, &affiliation, &email, &orcid, &a.Corresponding); err != nil {
			return nil, fmt.Errorf("scanning author: %w", err)
		}
		a.Affiliation = affiliation.String
		a.Email = email.String
		a.ORCID = orcid.String
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// CitationsByDocument returns a document's citations in key order.
func (s *Store) CitationsByDocument(ctx context.Context, documentID int64) ([]types.Citation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, position, key, record
		 FROM citations WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading citations for document %d: %w", documentID, err)
	}
	defer rows.Close()
	var citations []types.Citation
	for rows.Next() {
		var c types.Citation
		var record string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Position, &c.Key, &record); err != nil {
			return nil, fmt.Errorf("scanning citation: %w", err)
		}
		if err := json.Unmarshal([]byte(record), &c.Record); err != nil {
			return nil, fmt.Errorf("decoding citation %s: %w", c.Key, err)
		}
		citations = append(citations, c)
	}
	return citations, rows.Err()
}

// FiguresByDocument returns a document's figures in position order.
func (s *Store) FiguresByDocument(ctx context.Context, documentID int64) ([]types.Figure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, position, caption, description
		 FROM figures WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading figures for document %d: %w", documentID, err)
	}
	defer rows.Close()
	var figures []types.Figure
	for rows.Next() {
		var f types.Figure
		var description sql.NullString
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.Position, &f.Caption, &description); err != nil {
			return nil, fmt.Errorf("scanning figure: %w", err)
		}
		f.Description = description.String
		figures = append(figures, f)
	}
	return figures, rows.Err()
}

// TablesByDocument returns a document's tables in position order.
func (s *Store) TablesByDocument(ctx context.Context, documentID int64) ([]types.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, position, caption, columns, rows
		 FROM tabular WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading tables for document %d: %w", documentID, err)
	}
	defer rows.Close()
	var tables []types.Table
	for rows.Next() {
		var tbl types.Table
		var columns, rowsJSON sql.NullString
		if err := rows.Scan(&tbl.ID, &tbl.DocumentID, &tbl.Position, &tbl.Caption, &columns, &rowsJSON); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		if columns.String != "" {
			if err := json.Unmarshal([]byte(columns.String), &tbl.Columns); err != nil {
				return nil, fmt.Errorf("decoding table columns: %w", err)
			}
		}
		if rowsJSON.String != "" {
			if err := json.Unmarshal([]byte(rowsJSON.String), &tbl.Rows); err != nil {
				return nil, fmt.Errorf("decoding table rows: %w", err)
			}
		}
		tables = append(tables, tbl)
	}
	return tables, rows.Err()
}

// CreateRevision inserts a revision request and assigns its ID.
func (s *Store) CreateRevision(ctx context.Context, rev *types.RevisionRequest) error {
	now := time.Now().UTC()
	rev.CreatedAt = now
	rev.UpdatedAt = now
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO revision_requests (document_id, type, instructions, preserve_argument, preserve_figures, preserve_word_count, preserve_citations, status, new_document_id, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.DocumentID, rev.Type, rev.Instructions,
		rev.PreserveArgument, rev.PreserveFigures, rev.PreserveWordCount, rev.PreserveCitations,
		rev.Status, rev.NewDocumentID, rev.Error, rev.CreatedAt, rev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting revision request: %w", err)
	}
	rev.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading revision id: %w", err)
	}
	return nil
}

// UpdateRevision overwrites a revision request's mutable fields.
func (s *Store) UpdateRevision(ctx context.Context, rev *types.RevisionRequest) error {
	rev.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE revision_requests SET status = ?, new_document_id = ?, error = ?, updated_at = ? WHERE id = ?`,
		rev.Status, rev.NewDocumentID, rev.Error, rev.UpdatedAt, rev.ID)
	if err != nil {
		return fmt.Errorf("updating revision %d: %w", rev.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating revision %d: %w", rev.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("revision %d not found", rev.ID)
	}
	return nil
}

// GetRevision loads a revision request by id.
func (s *Store) GetRevision(ctx context.Context, id int64) (*types.RevisionRequest, error) {
	var rev types.RevisionRequest
	var newDocID sql.NullInt64
	var errMsg sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, type, instructions, preserve_argument, preserve_figures, preserve_word_count, preserve_citations, status, new_document_id, error, created_at, updated_at
		 FROM revision_requests WHERE id = ?`, id).
		Scan(&rev.ID, &rev.DocumentID, &rev.Type, &rev.Instructions,
			&rev.PreserveArgument, &rev.PreserveFigures, &rev.PreserveWordCount, &rev.PreserveCitations,
			&rev.Status, &newDocID, &errMsg, &rev.CreatedAt, &rev.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("revision %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading revision %d: %w", id, err)
	}
	rev.NewDocumentID = newDocID.Int64
	rev.Error = errMsg.String
	return &rev, nil
}
