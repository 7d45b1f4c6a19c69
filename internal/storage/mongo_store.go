package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"dashboard/internal/domain"
)

// MongoStore implements domain.TemplateStore and domain.RevisionStore on
// MongoDB. Template documents are kept as JSON strings so settings key order
// survives the round trip.
type MongoStore struct {
	client    *mongo.Client
	templates *mongo.Collection
	revisions *mongo.Collection
}

type mongoTemplate struct {
	ID           string     `bson:"_id"`
	Name         string     `bson:"name"`
	Status       string     `bson:"status"`
	Version      int        `bson:"version"`
	DocumentJSON string     `bson:"document_json"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	PublishedAt  *time.Time `bson:"published_at,omitempty"`
}

type mongoRevision struct {
	ID           string    `bson:"_id"`
	TemplateID   string    `bson:"template_id"`
	ParentID     *string   `bson:"parent_id"`
	Seq          int       `bson:"seq"`
	Label        string    `bson:"label"`
	Kind         string    `bson:"kind"`
	SnapshotJSON string    `bson:"snapshot_json"`
	CreatedAt    time.Time `bson:"created_at"`
}

// OpenMongo connects to uri and uses database (default "dashboard").
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("open mongodb: dsn is required")
	}
	if database == "" {
		database = "dashboard"
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:    client,
		templates: db.Collection("templates"),
		revisions: db.Collection("template_revisions"),
	}
	_, err = s.revisions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "template_id", Value: 1}, {Key: "seq", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create revision index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ─────────────────────────────────────────────────────────────
// Templates
// ─────────────────────────────────────────────────────────────

func (s *MongoStore) CreateTemplate(ctx context.Context, r *domain.TemplateRecord) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = domain.TemplateDraft
	}
	doc, err := toMongoTemplate(r)
	if err != nil {
		return err
	}
	if _, err := s.templates.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert template %s: %w", r.ID, err)
	}
	return nil
}

func (s *MongoStore) GetTemplate(ctx context.Context, id string) (*domain.TemplateRecord, error) {
	var doc mongoTemplate
	err := s.templates.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get template %s: %w", id, domain.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", id, err)
	}
	return doc.record()
}

func (s *MongoStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"document_json": 0})
	cursor, err := s.templates.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.TemplateSummary
	for cursor.Next(ctx) {
		var doc mongoTemplate
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode template: %w", err)
		}
		out = append(out, domain.TemplateSummary{
			ID:          doc.ID,
			Name:        doc.Name,
			Status:      domain.TemplateStatus(doc.Status),
			Version:     doc.Version,
			UpdatedAt:   doc.UpdatedAt,
			PublishedAt: doc.PublishedAt,
		})
	}
	return out, cursor.Err()
}

func (s *MongoStore) UpdateTemplate(ctx context.Context, r *domain.TemplateRecord) error {
	r.UpdatedAt = time.Now().UTC()
	doc, err := toMongoTemplate(r)
	if err != nil {
		return err
	}
	set := bson.M{
		"name":          doc.Name,
		"status":        doc.Status,
		"version":       doc.Version,
		"document_json": doc.DocumentJSON,
		"updated_at":    doc.UpdatedAt,
		"published_at":  doc.PublishedAt,
	}
	res, err := s.templates.UpdateOne(ctx, bson.M{"_id": r.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update template %s: %w", r.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update template %s: %w", r.ID, domain.ErrTemplateNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.templates.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete template %s: %w", id, domain.ErrTemplateNotFound)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────
// Revisions
// ─────────────────────────────────────────────────────────────

func (s *MongoStore) PushRevision(ctx context.Context, rev *domain.TemplateRevision, keep int) error {
	if keep <= 0 {
		keep = DefaultRevisionKeep
	}
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	rev.CreatedAt = time.Now().UTC()

	seq := 0
	var latest mongoRevision
	err := s.revisions.FindOne(ctx, bson.M{"template_id": rev.TemplateID},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}),
	).Decode(&latest)
	switch {
	case err == nil:
		seq = latest.Seq
		if rev.ParentID == nil {
			parent := latest.ID
			rev.ParentID = &parent
		}
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("push revision: latest: %w", err)
	}

	_, err = s.revisions.InsertOne(ctx, mongoRevision{
		ID:           rev.ID,
		TemplateID:   rev.TemplateID,
		ParentID:     rev.ParentID,
		Seq:          seq + 1,
		Label:        rev.Label,
		Kind:         string(rev.Kind),
		SnapshotJSON: rev.SnapshotJSON,
		CreatedAt:    rev.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	if err := s.pruneRevisions(ctx, rev.TemplateID, keep); err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	return nil
}

func (s *MongoStore) ListRevisions(ctx context.Context, templateID string) ([]domain.TemplateRevision, error) {
	cursor, err := s.revisions.Find(ctx, bson.M{"template_id": templateID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.TemplateRevision
	for cursor.Next(ctx) {
		var doc mongoRevision
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode revision: %w", err)
		}
		out = append(out, doc.revision())
	}
	return out, cursor.Err()
}

func (s *MongoStore) GetRevision(ctx context.Context, id string) (*domain.TemplateRevision, error) {
	var doc mongoRevision
	err := s.revisions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get revision %s: %w", id, domain.ErrRevisionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision %s: %w", id, err)
	}
	r := doc.revision()
	return &r, nil
}

func (s *MongoStore) DeleteRevisions(ctx context.Context, templateID string) error {
	if _, err := s.revisions.DeleteMany(ctx, bson.M{"template_id": templateID}); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}

func (s *MongoStore) pruneRevisions(ctx context.Context, templateID string, keep int) error {
	count, err := s.revisions.CountDocuments(ctx, bson.M{"template_id": templateID})
	if err != nil {
		return err
	}
	if int(count) <= keep {
		return nil
	}
	cursor, err := s.revisions.Find(ctx, bson.M{"template_id": templateID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}).SetLimit(count-int64(keep)))
	if err != nil {
		return err
	}
	var victims []mongoRevision
	if err := cursor.All(ctx, &victims); err != nil {
		return err
	}
	for _, v := range victims {
		_, err := s.revisions.UpdateMany(ctx, bson.M{"parent_id": v.ID}, bson.M{"$set": bson.M{"parent_id": v.ParentID}})
		if err != nil {
			return err
		}
		if _, err := s.revisions.DeleteOne(ctx, bson.M{"_id": v.ID}); err != nil {
			return err
		}
	}
	return nil
}

// ── helpers ─────────────────────────────────────────────────

func toMongoTemplate(r *domain.TemplateRecord) (mongoTemplate, error) {
	doc, err := json.Marshal(r.Document)
	if err != nil {
		return mongoTemplate{}, fmt.Errorf("encode template %s: %w", r.ID, err)
	}
	return mongoTemplate{
		ID:           r.ID,
		Name:         r.Name,
		Status:       string(r.Status),
		Version:      r.Version,
		DocumentJSON: string(doc),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		PublishedAt:  r.PublishedAt,
	}, nil
}

func (m mongoTemplate) record() (*domain.TemplateRecord, error) {
	r := &domain.TemplateRecord{
		ID:          m.ID,
		Name:        m.Name,
		Status:      domain.TemplateStatus(m.Status),
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		PublishedAt: m.PublishedAt,
	}
	if err := json.Unmarshal([]byte(m.DocumentJSON), &r.Document); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", m.ID, err)
	}
	return r, nil
}

func (m mongoRevision) revision() domain.TemplateRevision {
	return domain.TemplateRevision{
		ID:           m.ID,
		TemplateID:   m.TemplateID,
		ParentID:     m.ParentID,
		Label:        m.Label,
		Kind:         domain.RevisionKind(m.Kind),
		SnapshotJSON: m.SnapshotJSON,
		CreatedAt:    m.CreatedAt,
	}
}
