package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"medline-loader/models"
	"medline-loader/storage"
	"medline-loader/xmlstream"

	"go.uber.org/zap"
)

// MeshLoader befüllt das MeSH-Vokabular aus den NLM-Dateien desc*.xml und qual*.xml.
// Bereits vorhandene UIs werden ignoriert, der Import ist also wiederholbar.
type MeshLoader struct {
	DB        storage.Transactor
	Logger    *zap.Logger
	BatchSize int
}

func NewMeshLoader(db storage.Transactor, logger *zap.Logger, batchSize int) *MeshLoader {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &MeshLoader{DB: db, Logger: logger, BatchSize: batchSize}
}

// LoadDescriptors liest DescriptorRecord-Elemente und gibt die Anzahl gelesener Einträge zurück.
func (l *MeshLoader) LoadDescriptors(ctx context.Context, r io.Reader) (int, error) {
	return loadVocabulary(ctx, l, r, "DescriptorRecord", "DescriptorUI", "DescriptorName",
		func(ui, name string) models.Descriptor { return models.Descriptor{UI: ui, Name: name} })
}

// LoadQualifiers liest QualifierRecord-Elemente und gibt die Anzahl gelesener Einträge zurück.
func (l *MeshLoader) LoadQualifiers(ctx context.Context, r io.Reader) (int, error) {
	return loadVocabulary(ctx, l, r, "QualifierRecord", "QualifierUI", "QualifierName",
		func(ui, name string) models.Qualifier { return models.Qualifier{UI: ui, Name: name} })
}

func loadVocabulary[T any](ctx context.Context, l *MeshLoader, r io.Reader, tag, uiTag, nameTag string, build func(ui, name string) T) (int, error) {
	body, err := xmlstream.OpenEnvelope(r)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var (
		dec   = xmlstream.NewDecoder(body, tag)
		batch = make([]T, 0, l.BatchSize)
		total int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := l.DB.WithTransaction(ctx, func(st storage.Store) error {
			return st.BulkInsertOrIgnore(ctx, &batch)
		})
		batch = batch[:0]
		return err
	}

	for {
		node, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("%s: %w", tag, err)
		}
		ui := node.Child(uiTag).Value()
		name := node.Path(nameTag, "String").Value()
		if ui == nil || name == nil {
			l.Logger.Warn("Eintrag ohne UI oder Namen übersprungen", zap.String("tag", tag), zap.Stringp("ui", ui))
			continue
		}
		batch = append(batch, build(*ui, *name))
		total++
		if len(batch) >= l.BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	l.Logger.Info("Vokabular geladen", zap.String("tag", tag), zap.Int("entries", total))
	return total, nil
}
