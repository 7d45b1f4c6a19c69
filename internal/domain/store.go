package domain

import (
	"context"
	"time"
)

type TemplateStatus string

const (
	TemplateDraft     TemplateStatus = "draft"
	TemplatePublished TemplateStatus = "published"
)

// TemplateRecord is a stored template document plus its bookkeeping.
type TemplateRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      TemplateStatus `json:"status"`
	Version     int            `json:"version"`
	Document    TemplateConfig `json:"document"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
}

// TemplateSummary is the list view of a record (no document).
type TemplateSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      TemplateStatus `json:"status"`
	Version     int            `json:"version"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
}

type RevisionKind string

const (
	RevisionSave    RevisionKind = "save"
	RevisionPublish RevisionKind = "publish"
)

// TemplateRevision is one persisted snapshot. Revisions form a chain
// through ParentID; the oldest revision has a nil parent.
type TemplateRevision struct {
	ID           string       `json:"id"`
	TemplateID   string       `json:"templateId"`
	ParentID     *string      `json:"parentId"`
	Label        string       `json:"label"`
	Kind         RevisionKind `json:"kind"`
	SnapshotJSON string       `json:"snapshotJson"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// TemplateStore persists template documents.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, r *TemplateRecord) error
	GetTemplate(ctx context.Context, id string) (*TemplateRecord, error)
	ListTemplates(ctx context.Context) ([]TemplateSummary, error)
	UpdateTemplate(ctx context.Context, r *TemplateRecord) error
	DeleteTemplate(ctx context.Context, id string) error
}

// RevisionStore persists save/publish snapshots per template.
type RevisionStore interface {
	PushRevision(ctx context.Context, rev *TemplateRevision, keep int) error
	ListRevisions(ctx context.Context, templateID string) ([]TemplateRevision, error)
	GetRevision(ctx context.Context, id string) (*TemplateRevision, error)
	DeleteRevisions(ctx context.Context, templateID string) error
}
