package importer

import (
	"context"
	"fmt"
	"strings"

	"limscore/pkg/domain"
)

// Criteria identifies an already-created entity by kind and a display key.
// It is a pure value with no identity of its own.
type Criteria struct {
	Kind     domain.Kind
	KeyField string // field to match; "" or "Title" means the entity title
	KeyValue string
	Extra    domain.Filters
}

// ByTitle builds the common title-keyed criteria.
func ByTitle(kind domain.Kind, title string) Criteria {
	return Criteria{Kind: kind, KeyField: "Title", KeyValue: title}
}

// ByField builds criteria keyed on a named field instead of the title.
func ByField(kind domain.Kind, field, value string) Criteria {
	return Criteria{Kind: kind, KeyField: field, KeyValue: value}
}

func (c Criteria) filters() domain.Filters {
	f := domain.Filters{}
	if c.KeyValue != "" {
		key := c.KeyField
		if key == "" || strings.EqualFold(key, "title") {
			key = "title"
		}
		f[key] = c.KeyValue
	}
	for k, v := range c.Extra {
		f[k] = v
	}
	return f
}

// secondaryKeys lists the per-kind fallback lookup applied when the primary
// query matches nothing. Only service records carry a short code worth
// retrying on.
var secondaryKeys = map[domain.Kind]string{
	domain.KindAnalysisService: "Keyword",
}

// Resolver turns textual keys from worksheet cells into stored entities.
// Lookups are pure reads, idempotent, and safe to repeat across both
// import passes.
type Resolver struct {
	repo domain.Repository
	log  Logger
}

// NewResolver builds a resolver over the given repository.
func NewResolver(repo domain.Repository, log Logger) *Resolver {
	if log == nil {
		log = NopLogger()
	}
	return &Resolver{repo: repo, log: log}
}

// Resolve returns the single entity matching c. Zero matches and ambiguous
// matches both come back as domain.ErrNotFound; ambiguity is logged and the
// caller must not guess among candidates. An empty key with no extra
// filters is a miss without a query.
func (r *Resolver) Resolve(ctx context.Context, c Criteria) (domain.Entity, error) {
	notFound := domain.ErrNotFound{Kind: c.Kind, Key: c.KeyValue}
	if c.KeyValue == "" && len(c.Extra) == 0 {
		return domain.Entity{}, notFound
	}
	filters := c.filters()
	matches, err := r.repo.Query(ctx, c.Kind, filters)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("query %s: %w", c.Kind, err)
	}
	switch {
	case len(matches) > 1:
		r.log.Infow("More than one object found", "kind", c.Kind, "filters", filters)
		return domain.Entity{}, notFound
	case len(matches) == 1:
		return matches[0], nil
	}
	if secondary, ok := secondaryKeys[c.Kind]; ok && c.KeyValue != "" && !strings.EqualFold(c.KeyField, secondary) {
		// The fallback query drops the extra filters on purpose; it is a
		// last-chance lookup by short code alone.
		fallback, err := r.repo.Query(ctx, c.Kind, domain.Filters{secondary: c.KeyValue})
		if err != nil {
			return domain.Entity{}, fmt.Errorf("query %s by %s: %w", c.Kind, secondary, err)
		}
		if len(fallback) > 0 {
			return fallback[0], nil
		}
	}
	r.log.Infow("No objects found", "kind", c.Kind, "filters", filters)
	return domain.Entity{}, notFound
}
