package services

import (
	"context"
	"sync"

	"medline-loader/models"
	"medline-loader/storage"
)

// VocabularyCache löst MeSH-UIs gegen das vorab geladene Vokabular auf.
// Treffer werden prozessweit gecacht, Fehlschläge nicht, damit ein späteres
// "mesh load" greift.
type VocabularyCache struct {
	mu          sync.RWMutex
	descriptors map[string]uint
	qualifiers  map[string]uint
}

func NewVocabularyCache() *VocabularyCache {
	return &VocabularyCache{
		descriptors: make(map[string]uint),
		qualifiers:  make(map[string]uint),
	}
}

// Descriptors gibt UI -> ID für alle gefundenen UIs zurück. Unbekannte fehlen im Ergebnis.
func (c *VocabularyCache) Descriptors(ctx context.Context, st storage.Store, uis []string) (map[string]uint, error) {
	return lookupVocabulary[models.Descriptor](ctx, st, &c.mu, c.descriptors, uis)
}

// Qualifiers gibt UI -> ID für alle gefundenen UIs zurück. Unbekannte fehlen im Ergebnis.
func (c *VocabularyCache) Qualifiers(ctx context.Context, st storage.Store, uis []string) (map[string]uint, error) {
	return lookupVocabulary[models.Qualifier](ctx, st, &c.mu, c.qualifiers, uis)
}

func lookupVocabulary[T any, P interface {
	*T
	models.VocabularyEntry
}](ctx context.Context, st storage.Store, mu *sync.RWMutex, cache map[string]uint, uis []string) (map[string]uint, error) {
	out := make(map[string]uint, len(uis))
	for _, ui := range uis {
		if _, done := out[ui]; done {
			continue
		}
		mu.RLock()
		id, ok := cache[ui]
		mu.RUnlock()
		if ok {
			out[ui] = id
			continue
		}

		var entry T
		found, err := st.LookupOne(ctx, &entry, "ui", ui)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		id = P(&entry).GetID()
		mu.Lock()
		cache[ui] = id
		mu.Unlock()
		out[ui] = id
	}
	return out, nil
}
