package sync

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"leadsync/internal/repository"
)

// IDMap resolves source identifiers to the surrogate keys the destination
// assigned on a previous upsert. Keys are the external_id text stored in the
// destination table.
type IDMap map[string]uuid.UUID

func (m IDMap) Resolve(externalID string) (uuid.UUID, bool) {
	id, ok := m[externalID]
	return id, ok
}

// ResolveInt looks up a numeric source id by its canonical decimal form.
func (m IDMap) ResolveInt(id int64) (uuid.UUID, bool) {
	return m.Resolve(strconv.FormatInt(id, 10))
}

// ResolveLoose tries the raw text first, then its canonical decimal form when
// the text parses as an integer. Upstream external_id columns mix the two.
func (m IDMap) ResolveLoose(raw string) (uuid.UUID, bool) {
	if id, ok := m[raw]; ok {
		return id, true
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return m.ResolveInt(n)
	}
	return uuid.Nil, false
}

type pairLister func(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.IDPair, error)

// BuildMap pages through the full identifier listing for one table. A short
// page ends the loop.
func BuildMap(ctx context.Context, tenantID uuid.UUID, pageSize int, list pairLister) (IDMap, error) {
	if pageSize <= 0 {
		pageSize = 1000
	}
	m := IDMap{}
	for offset := 0; ; offset += pageSize {
		pairs, err := list(ctx, tenantID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, pair := range pairs {
			m[pair.ExternalID] = pair.ID
		}
		if len(pairs) < pageSize {
			break
		}
	}
	return m, nil
}
