// Package search aggregates program search across the catalog providers,
// ranks the merged results and caches them.
package search

import (
	"context"

	"barrage/models"
)

// Provider is one searchable program catalog.
type Provider interface {
	// Name reports the provider tag used in results and cache keys.
	Name() models.ProviderTag

	// Search returns candidate programs for a keyword. Implementations
	// fill ProgramID with a stable upstream-derived numeric id so the
	// aggregator can dedupe on (provider, programId).
	Search(ctx context.Context, keyword string) ([]models.SearchResult, error)
}

// hashID folds an upstream string id into a stable positive numeric id
// (djb2, truncated to uint32 like the web clients do).
func hashID(s string) int64 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = (h * 33) ^ uint32(s[i])
	}
	return int64(h)
}
