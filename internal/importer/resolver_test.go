package importer

import (
	"context"
	"errors"
	"testing"

	"limscore/internal/infra/persistence/memory"
	"limscore/pkg/domain"
)

func TestResolveEmptyCriteriaMissesWithoutQuerying(t *testing.T) {
	repo := &countingRepo{Repository: memory.NewStore()}
	res := NewResolver(repo, nil)

	_, err := res.Resolve(context.Background(), ByTitle(domain.KindClient, ""))
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if repo.queries != 0 {
		t.Fatalf("empty criteria must not touch the repository, got %d queries", repo.queries)
	}
}

func TestResolveByTitleIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	created, err := store.Create(ctx, "", domain.KindDepartment, "Microbiology", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res := NewResolver(store, nil)

	got, err := res.Resolve(ctx, ByTitle(domain.KindDepartment, "microbiology"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UID != created.UID {
		t.Fatalf("resolved %q, want %q", got.UID, created.UID)
	}
}

func TestResolveAmbiguousIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	for i := 0; i < 2; i++ {
		if _, err := store.Create(ctx, "", domain.KindSamplePoint, "Borehole", nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	log := &captureLogger{}
	res := NewResolver(store, log)

	_, err := res.Resolve(ctx, ByTitle(domain.KindSamplePoint, "Borehole"))
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("ambiguity must surface as not-found, got %v", err)
	}
	if !hasMessage(log.infos, "More than one object found") {
		t.Fatalf("expected ambiguity log, got %+v", log.infos)
	}
}

func TestResolveServiceFallsBackToKeyword(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	created, err := store.Create(ctx, "", domain.KindAnalysisService, "Iron", domain.Values{
		"Keyword": domain.TextValue("Fe"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res := NewResolver(store, nil)

	got, err := res.Resolve(ctx, ByTitle(domain.KindAnalysisService, "Fe"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UID != created.UID {
		t.Fatalf("keyword fallback resolved %q, want %q", got.UID, created.UID)
	}
}

func TestResolveKeywordFallbackTakesFirstMatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first, err := store.Create(ctx, "", domain.KindAnalysisService, "Zinc soluble", domain.Values{
		"Keyword": domain.TextValue("Zn"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, "", domain.KindAnalysisService, "Zinc total", domain.Values{
		"Keyword": domain.TextValue("Zn"),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	res := NewResolver(store, nil)

	got, err := res.Resolve(ctx, ByTitle(domain.KindAnalysisService, "Zn"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UID != first.UID {
		t.Fatalf("fallback should keep creation order, got %q want %q", got.UID, first.UID)
	}
}

func TestResolveByKeywordDoesNotRerunFallback(t *testing.T) {
	repo := &countingRepo{Repository: memory.NewStore()}
	res := NewResolver(repo, nil)

	_, err := res.Resolve(context.Background(), ByField(domain.KindAnalysisService, "Keyword", "Missing"))
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if repo.queries != 1 {
		t.Fatalf("keyword criteria should query once, got %d", repo.queries)
	}
}

func TestResolveOtherKindsHaveNoFallback(t *testing.T) {
	repo := &countingRepo{Repository: memory.NewStore()}
	res := NewResolver(repo, nil)

	_, err := res.Resolve(context.Background(), ByTitle(domain.KindSampleType, "Water"))
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if repo.queries != 1 {
		t.Fatalf("non-service kinds query once, got %d", repo.queries)
	}
}

func TestResolveWithExtraFiltersOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	parent, err := store.Create(ctx, "", domain.KindClient, "Acme", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	contact, err := store.Create(ctx, parent.UID, domain.KindClientContact, "Rita Mohale", domain.Values{
		"Fullname": domain.TextValue("Rita Mohale"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res := NewResolver(store, nil)

	got, err := res.Resolve(ctx, Criteria{
		Kind:  domain.KindClientContact,
		Extra: domain.Filters{"parent": parent.UID},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UID != contact.UID {
		t.Fatalf("resolved %q, want %q", got.UID, contact.UID)
	}
}

func TestResolveIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	created, err := store.Create(ctx, "", domain.KindMethod, "Titration", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res := NewResolver(store, nil)

	for i := 0; i < 2; i++ {
		got, err := res.Resolve(ctx, ByTitle(domain.KindMethod, "Titration"))
		if err != nil {
			t.Fatalf("Resolve #%d: %v", i+1, err)
		}
		if got.UID != created.UID {
			t.Fatalf("Resolve #%d returned %q", i+1, got.UID)
		}
	}
}
