package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dashboard/internal/domain"
)

// TemplateStore implements domain.TemplateStore over SQL.
type TemplateStore struct {
	db *DB
}

func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = `id, name, status, version, document_json, created_at, updated_at, published_at`

func (s *TemplateStore) CreateTemplate(ctx context.Context, r *domain.TemplateRecord) error {
	doc, err := json.Marshal(r.Document)
	if err != nil {
		return fmt.Errorf("encode template %s: %w", r.ID, err)
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = domain.TemplateDraft
	}
	_, err = s.db.exec(ctx, s.db.conn,
		`INSERT INTO templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, string(r.Status), r.Version, string(doc), r.CreatedAt, r.UpdatedAt, nullTime(r.PublishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert template %s: %w", r.ID, err)
	}
	return nil
}

func (s *TemplateStore) GetTemplate(ctx context.Context, id string) (*domain.TemplateRecord, error) {
	row := s.db.queryRow(ctx, s.db.conn, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)
	r, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get template %s: %w", id, domain.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", id, err)
	}
	return r, nil
}

func (s *TemplateStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	rows, err := s.db.query(ctx, s.db.conn,
		`SELECT id, name, status, version, updated_at, published_at FROM templates ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.TemplateSummary
	for rows.Next() {
		var (
			t         domain.TemplateSummary
			status    string
			published sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Name, &status, &t.Version, &t.UpdatedAt, &published); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Status = domain.TemplateStatus(status)
		t.PublishedAt = timePtr(published)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TemplateStore) UpdateTemplate(ctx context.Context, r *domain.TemplateRecord) error {
	doc, err := json.Marshal(r.Document)
	if err != nil {
		return fmt.Errorf("encode template %s: %w", r.ID, err)
	}
	r.UpdatedAt = time.Now().UTC()
	res, err := s.db.exec(ctx, s.db.conn,
		`UPDATE templates SET name = ?, status = ?, version = ?, document_json = ?, updated_at = ?, published_at = ? WHERE id = ?`,
		r.Name, string(r.Status), r.Version, string(doc), r.UpdatedAt, nullTime(r.PublishedAt), r.ID,
	)
	if err != nil {
		return fmt.Errorf("update template %s: %w", r.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update template %s: %w", r.ID, domain.ErrTemplateNotFound)
	}
	return nil
}

func (s *TemplateStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.exec(ctx, s.db.conn, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete template %s: %w", id, domain.ErrTemplateNotFound)
	}
	return nil
}

func scanTemplate(row *sql.Row) (*domain.TemplateRecord, error) {
	var (
		r         domain.TemplateRecord
		status    string
		doc       string
		published sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.Name, &status, &r.Version, &doc, &r.CreatedAt, &r.UpdatedAt, &published); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(doc), &r.Document); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	r.Status = domain.TemplateStatus(status)
	r.PublishedAt = timePtr(published)
	return &r, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
