package sync

import (
	"context"
	"strconv"
	"testing"

	"github.com/google/uuid"

	"leadsync/internal/repository"
)

func TestBuildMap_Paginates(t *testing.T) {
	// 2500 pairs with a page size of 1000: two full pages plus a short one.
	total := 2500
	all := make([]repository.IDPair, total)
	for i := range all {
		all[i] = repository.IDPair{ID: uuid.New(), ExternalID: strconv.Itoa(i)}
	}
	calls := 0
	list := func(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.IDPair, error) {
		calls++
		if offset >= total {
			return nil, nil
		}
		end := offset + limit
		if end > total {
			end = total
		}
		return all[offset:end], nil
	}

	m, err := BuildMap(context.Background(), testTenant, 1000, list)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(m) != total {
		t.Fatalf("len=%d want %d", len(m), total)
	}
	if calls != 3 {
		t.Fatalf("calls=%d want 3", calls)
	}
	if id, ok := m.Resolve("2499"); !ok || id != all[2499].ID {
		t.Fatalf("last pair missing")
	}
}

func TestBuildMap_Empty(t *testing.T) {
	list := func(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.IDPair, error) {
		return nil, nil
	}
	m, err := BuildMap(context.Background(), testTenant, 0, list)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(m) != 0 {
		t.Fatalf("len=%d", len(m))
	}
}

func TestIDMap_ResolveLoose(t *testing.T) {
	id := uuid.New()
	m := IDMap{"42": id}
	if got, ok := m.ResolveLoose("42"); !ok || got != id {
		t.Fatalf("exact lookup failed")
	}
	if got, ok := m.ResolveLoose("042"); !ok || got != id {
		t.Fatalf("canonical fallback failed")
	}
	if _, ok := m.ResolveLoose("nope"); ok {
		t.Fatalf("unexpected hit")
	}
}
