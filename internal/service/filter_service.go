package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

// ─────────────────────────────────────────────────────────────
// Filter Service - storefront filters through the GraphQL backend
// ─────────────────────────────────────────────────────────────

// GraphQLDoer runs one GraphQL operation. *graphql.Client implements it.
type GraphQLDoer interface {
	Do(ctx context.Context, query string, variables map[string]any, out any) error
}

// ErrGraphQLUnavailable is returned when no GraphQL endpoint is configured.
var ErrGraphQLUnavailable = errors.New("graphql endpoint not configured")

// UserError is a validation problem reported by the backend.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func userErrors(op string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		if len(e.Field) > 0 {
			msgs[i] = strings.Join(e.Field, ".") + ": " + e.Message
		} else {
			msgs[i] = e.Message
		}
	}
	return fmt.Errorf("%s: %s", op, strings.Join(msgs, "; "))
}

const filterFields = `id label type displayType optionName metafieldKey collapsed showCount position
	options { label value position visible }`

const (
	queryFilters = `query Filters { filters { ` + filterFields + ` } }`

	mutationSaveFilter = `mutation SaveFilter($input: FilterInput!) {
	saveFilter(input: $input) { filter { ` + filterFields + ` } userErrors { field message } }
}`

	mutationDeleteFilter = `mutation DeleteFilter($id: ID!) {
	deleteFilter(id: $id) { deletedId userErrors { field message } }
}`

	mutationReorderFilters = `mutation ReorderFilters($ids: [ID!]!) {
	reorderFilters(ids: $ids) { userErrors { field message } }
}`
)

// FilterService reads and writes storefront filters.
type FilterService struct {
	gql     GraphQLDoer
	emitter EventEmitter
	logger  *zap.Logger
}

// NewFilterService creates a FilterService. gql may be nil when no endpoint
// is configured; every call then fails with ErrGraphQLUnavailable.
func NewFilterService(gql GraphQLDoer, emitter EventEmitter, logger *zap.Logger) *FilterService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilterService{gql: gql, emitter: emitter, logger: logger}
}

func (s *FilterService) do(ctx context.Context, query string, vars map[string]any, out any) error {
	if s.gql == nil {
		return ErrGraphQLUnavailable
	}
	return s.gql.Do(ctx, query, vars, out)
}

// ListFilters returns the filters ordered by position.
func (s *FilterService) ListFilters(ctx context.Context) ([]domain.Filter, error) {
	var out struct {
		Filters []domain.Filter `json:"filters"`
	}
	if err := s.do(ctx, queryFilters, nil, &out); err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	sort.SliceStable(out.Filters, func(i, j int) bool { return out.Filters[i].Position < out.Filters[j].Position })
	return out.Filters, nil
}

// SaveFilter validates the form and creates or updates the filter.
func (s *FilterService) SaveFilter(ctx context.Context, form *engine.FilterForm) (domain.Filter, error) {
	if err := form.Validate(); err != nil {
		return domain.Filter{}, err
	}
	var out struct {
		SaveFilter struct {
			Filter     domain.Filter `json:"filter"`
			UserErrors []UserError   `json:"userErrors"`
		} `json:"saveFilter"`
	}
	if err := s.do(ctx, mutationSaveFilter, map[string]any{"input": form.Filter()}, &out); err != nil {
		return domain.Filter{}, fmt.Errorf("save filter: %w", err)
	}
	if err := userErrors("save filter", out.SaveFilter.UserErrors); err != nil {
		return domain.Filter{}, err
	}
	saved := out.SaveFilter.Filter
	s.logger.Info("filters: saved", zap.String("filterId", saved.ID), zap.String("type", string(saved.Type)))
	s.emitter.Emit(ctx, EventFiltersChanged, saved.ID)
	return saved, nil
}

// DeleteFilter removes a filter.
func (s *FilterService) DeleteFilter(ctx context.Context, id string) error {
	var out struct {
		DeleteFilter struct {
			DeletedID  string      `json:"deletedId"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"deleteFilter"`
	}
	if err := s.do(ctx, mutationDeleteFilter, map[string]any{"id": id}, &out); err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	if err := userErrors("delete filter", out.DeleteFilter.UserErrors); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventFiltersChanged, id)
	return nil
}

// MoveFilter moves the filter at index from to index to and stores the
// new order.
func (s *FilterService) MoveFilter(ctx context.Context, from, to int) ([]domain.Filter, error) {
	filters, err := s.ListFilters(ctx)
	if err != nil {
		return nil, err
	}
	if from < 0 || from >= len(filters) || to < 0 || to >= len(filters) {
		return filters, nil
	}
	filters = engine.Reorder(filters, from, to)
	ids := make([]string, len(filters))
	for i := range filters {
		filters[i].Position = i
		ids[i] = filters[i].ID
	}
	if err := s.ReorderFilters(ctx, ids); err != nil {
		return nil, err
	}
	return filters, nil
}

// ReorderFilters stores the filter order given by ids.
func (s *FilterService) ReorderFilters(ctx context.Context, ids []string) error {
	var out struct {
		ReorderFilters struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"reorderFilters"`
	}
	if err := s.do(ctx, mutationReorderFilters, map[string]any{"ids": ids}, &out); err != nil {
		return fmt.Errorf("reorder filters: %w", err)
	}
	if err := userErrors("reorder filters", out.ReorderFilters.UserErrors); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventFiltersChanged, ids)
	return nil
}

// ─────────────────────────────────────────────────────────────
// Catalogue - products listed by previews
// ─────────────────────────────────────────────────────────────

const queryProducts = `query Products($first: Int!) {
	products(first: $first) { nodes { id title vendor description price compareAtPrice image available rating badge } }
}`

// GraphQLCatalog fetches preview products from the GraphQL backend.
type GraphQLCatalog struct {
	gql   GraphQLDoer
	limit int
}

// NewGraphQLCatalog lists up to limit products (default 12).
func NewGraphQLCatalog(gql GraphQLDoer, limit int) *GraphQLCatalog {
	if limit <= 0 {
		limit = 12
	}
	return &GraphQLCatalog{gql: gql, limit: limit}
}

func (c *GraphQLCatalog) Products(ctx context.Context) ([]map[string]any, error) {
	if c.gql == nil {
		return nil, ErrGraphQLUnavailable
	}
	var out struct {
		Products struct {
			Nodes []map[string]any `json:"nodes"`
		} `json:"products"`
	}
	if err := c.gql.Do(ctx, queryProducts, map[string]any{"first": c.limit}, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	for _, p := range out.Products.Nodes {
		if v, ok := p["compareAtPrice"]; ok {
			p["compare_at_price"] = v
			delete(p, "compareAtPrice")
		}
	}
	return out.Products.Nodes, nil
}
