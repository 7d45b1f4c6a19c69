package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dashboard/internal/domain"
)

// DefaultRevisionKeep is how many revisions are kept per template when the
// caller does not say.
const DefaultRevisionKeep = 40

// RevisionStore implements domain.RevisionStore over SQL. Revisions of a
// template form a chain: each new revision's parent is the previous one.
type RevisionStore struct {
	db *DB
}

func NewRevisionStore(db *DB) *RevisionStore {
	return &RevisionStore{db: db}
}

const revisionColumns = `id, template_id, parent_id, label, kind, snapshot_json, created_at`

// PushRevision appends rev after the template's latest revision and prunes
// the chain down to keep entries (0 = DefaultRevisionKeep). rev.ID is
// generated when empty.
func (s *RevisionStore) PushRevision(ctx context.Context, rev *domain.TemplateRevision, keep int) error {
	if keep <= 0 {
		keep = DefaultRevisionKeep
	}
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	rev.CreatedAt = time.Now().UTC()

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("push revision: %w", err)
	}
	defer tx.Rollback()

	var (
		latest sql.NullString
		seq    int
	)
	err = s.db.queryRow(ctx, tx,
		`SELECT id, seq FROM template_revisions WHERE template_id = ? ORDER BY seq DESC LIMIT 1`, rev.TemplateID,
	).Scan(&latest, &seq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("push revision: latest: %w", err)
	}
	if rev.ParentID == nil && latest.Valid {
		parent := latest.String
		rev.ParentID = &parent
	}

	_, err = s.db.exec(ctx, tx,
		`INSERT INTO template_revisions (id, template_id, parent_id, seq, label, kind, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.ID, rev.TemplateID, rev.ParentID, seq+1, rev.Label, string(rev.Kind), rev.SnapshotJSON, rev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}

	if err := s.prune(ctx, tx, rev.TemplateID, keep); err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	return tx.Commit()
}

// ListRevisions returns a template's revisions, newest first.
func (s *RevisionStore) ListRevisions(ctx context.Context, templateID string) ([]domain.TemplateRevision, error) {
	rows, err := s.db.query(ctx, s.db.conn,
		`SELECT `+revisionColumns+` FROM template_revisions WHERE template_id = ? ORDER BY seq DESC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var out []domain.TemplateRevision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *RevisionStore) GetRevision(ctx context.Context, id string) (*domain.TemplateRevision, error) {
	row := s.db.queryRow(ctx, s.db.conn, `SELECT `+revisionColumns+` FROM template_revisions WHERE id = ?`, id)
	r, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get revision %s: %w", id, domain.ErrRevisionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision %s: %w", id, err)
	}
	return r, nil
}

// DeleteRevisions removes every revision of a template.
func (s *RevisionStore) DeleteRevisions(ctx context.Context, templateID string) error {
	_, err := s.db.exec(ctx, s.db.conn, `DELETE FROM template_revisions WHERE template_id = ?`, templateID)
	if err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}

// prune removes the oldest revisions beyond keep. Children of a removed
// revision are re-parented to its parent so the chain stays connected.
func (s *RevisionStore) prune(ctx context.Context, tx *sql.Tx, templateID string, keep int) error {
	var count int
	if err := s.db.queryRow(ctx, tx, `SELECT COUNT(*) FROM template_revisions WHERE template_id = ?`, templateID).Scan(&count); err != nil {
		return err
	}
	if count <= keep {
		return nil
	}

	// Collect ids first; no writes while the cursor is open
	rows, err := s.db.query(ctx, tx,
		`SELECT id, parent_id FROM template_revisions WHERE template_id = ? ORDER BY seq ASC LIMIT ?`,
		templateID, count-keep)
	if err != nil {
		return err
	}
	type victim struct {
		id     string
		parent sql.NullString
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.id, &v.parent); err != nil {
			rows.Close()
			return err
		}
		victims = append(victims, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, v := range victims {
		var parent any
		if v.parent.Valid {
			parent = v.parent.String
		}
		if _, err := s.db.exec(ctx, tx, `UPDATE template_revisions SET parent_id = ? WHERE parent_id = ?`, parent, v.id); err != nil {
			return err
		}
		if _, err := s.db.exec(ctx, tx, `DELETE FROM template_revisions WHERE id = ?`, v.id); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(row rowScanner) (*domain.TemplateRevision, error) {
	var (
		r      domain.TemplateRevision
		parent sql.NullString
		kind   string
	)
	if err := row.Scan(&r.ID, &r.TemplateID, &parent, &r.Label, &kind, &r.SnapshotJSON, &r.CreatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		p := parent.String
		r.ParentID = &p
	}
	r.Kind = domain.RevisionKind(kind)
	return &r, nil
}
