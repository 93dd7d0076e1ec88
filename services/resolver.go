package services

import (
	"context"
	"fmt"

	"medline-loader/models"
	"medline-loader/storage"
)

// Resolve löst N Kandidaten einer Entitätsklasse mit ihren Hashes auf N IDs
// in Eingabereihenfolge auf. Gleiche Hashes ergeben dieselbe ID, auch
// innerhalb eines Batches; bereits gespeicherte Zeilen werden wiederverwendet.
//
// Ablauf: ein Insert-or-ignore über alle unterschiedlichen Hashes, ein
// Lookup über dieselben Hashes, dann Rückprojektion auf die Eingabe.
func Resolve[T any, P interface {
	*T
	models.ContentAddressed
}](ctx context.Context, st storage.Store, candidates []T, hashes []string) ([]uint, error) {
	if err := CheckLengths(len(candidates), len(hashes)); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(hashes))
	distinct := make([]T, 0, len(candidates))
	keys := make([]string, 0, len(candidates))
	for i, h := range hashes {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		row := candidates[i]
		P(&row).SetContentHash(h)
		distinct = append(distinct, row)
		keys = append(keys, h)
	}

	if err := st.BulkInsertOrIgnore(ctx, &distinct); err != nil {
		return nil, err
	}
	var stored []T
	if err := st.BulkLookup(ctx, &stored, models.ContentHashColumn, keys); err != nil {
		return nil, err
	}

	byHash := make(map[string]uint, len(stored))
	for i := range stored {
		p := P(&stored[i])
		byHash[p.GetContentHash()] = p.GetID()
	}

	ids := make([]uint, len(hashes))
	for i, h := range hashes {
		id, ok := byHash[h]
		if !ok {
			var zero T
			return nil, fmt.Errorf("%w: %T with hash %s", ErrUnresolved, zero, h)
		}
		ids[i] = id
	}
	return ids, nil
}

// ResolveAll berechnet die Hashes aus NaturalKey und ruft Resolve auf.
func ResolveAll[T any, P interface {
	*T
	models.ContentAddressed
}](ctx context.Context, st storage.Store, candidates []T) ([]uint, error) {
	hashes := make([]string, len(candidates))
	for i := range candidates {
		hashes[i] = ContentHash(P(&candidates[i]).NaturalKey()...)
	}
	return Resolve[T, P](ctx, st, candidates, hashes)
}

// resolveSparse löst nur die Positionen auf, für die build einen Kandidaten
// liefert. Übersprungene Positionen behalten ID 0.
func resolveSparse[T any, P interface {
	*T
	models.ContentAddressed
}](ctx context.Context, st storage.Store, n int, build func(i int) (T, bool)) ([]uint, error) {
	var (
		candidates []T
		positions  []int
	)
	for i := 0; i < n; i++ {
		if c, ok := build(i); ok {
			candidates = append(candidates, c)
			positions = append(positions, i)
		}
	}
	ids, err := ResolveAll[T, P](ctx, st, candidates)
	if err != nil {
		return nil, err
	}
	out := make([]uint, n)
	for k, i := range positions {
		out[i] = ids[k]
	}
	return out, nil
}
