// Package matching provides the per-run in-memory lookup from every
// known key variant of the target collection to its owning record. An
// Index is owned by exactly one import run: it is built from a single
// bulk read at run start and discarded with the run, so concurrent runs
// never share index state.
package matching

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/keys"
)

// Target is one existing record of the collection being matched
// against: its identifier, every natural identifier it is known by, and
// a human-readable label for preview output.
type Target struct {
	ID          uuid.UUID
	Identifiers []string
	Label       string
}

// Index maps key variants to owning record IDs and carries the set of
// idempotency keys already persisted in the store.
type Index struct {
	byVariant map[string]uuid.UUID
	labels    map[uuid.UUID]string
	hashes    map[string]struct{}
	logger    *slog.Logger
}

// Build indexes every variant of every target's identifiers plus the
// store's existing idempotency keys. When two existing records collide
// on a generated variant the later one wins; that is a data anomaly in
// the target collection, logged at warn, never fatal.
func Build(targets []Target, existingHashes []string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}

	ix := &Index{
		byVariant: make(map[string]uuid.UUID),
		labels:    make(map[uuid.UUID]string, len(targets)),
		hashes:    make(map[string]struct{}, len(existingHashes)),
		logger:    logger,
	}

	for _, t := range targets {
		ix.labels[t.ID] = t.Label
		for _, id := range t.Identifiers {
			for _, variant := range keys.Variants(id) {
				if prev, ok := ix.byVariant[variant]; ok && prev != t.ID {
					ix.logger.Warn("key variant collision between existing records",
						slog.String("variant", variant),
						slog.String("previous_id", prev.String()),
						slog.String("winner_id", t.ID.String()))
				}
				ix.byVariant[variant] = t.ID
			}
		}
	}

	for _, h := range existingHashes {
		ix.hashes[h] = struct{}{}
	}

	return ix
}

// Resolve generates the variant set of a row's natural identifier and
// returns the first owning record found across variants.
func (ix *Index) Resolve(naturalID string) (uuid.UUID, bool) {
	for _, variant := range keys.Variants(naturalID) {
		if id, ok := ix.byVariant[variant]; ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// Label returns the human-readable label of an indexed record.
func (ix *Index) Label(id uuid.UUID) string {
	return ix.labels[id]
}

// HasHash reports whether an idempotency key is already persisted.
func (ix *Index) HasHash(hash string) bool {
	_, ok := ix.hashes[hash]
	return ok
}

// Size returns the number of indexed variants.
func (ix *Index) Size() int {
	return len(ix.byVariant)
}
