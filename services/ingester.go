package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"medline-loader/models"
	"medline-loader/providers/pubmed"
	"medline-loader/storage"
	"medline-loader/xmlstream"

	"go.uber.org/zap"
)

// Outcome ist das Ergebnis eines einzelnen Records.
type Outcome int

const (
	OutcomeIngested Outcome = iota
	OutcomeRejected
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIngested:
		return "ingested"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSkipped:
		return "skipped"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// RunStats zählt die Records eines Streams.
type RunStats struct {
	Records  int `json:"records"`
	Ingested int `json:"ingested"`
	Rejected int `json:"rejected"`
	Skipped  int `json:"skipped"`
}

func (s *RunStats) add(o Outcome) {
	switch o {
	case OutcomeIngested:
		s.Ingested++
	case OutcomeRejected:
		s.Rejected++
	case OutcomeSkipped:
		s.Skipped++
	}
}

// Merge addiert die Zähler eines weiteren Laufs.
func (s *RunStats) Merge(o RunStats) {
	s.Records += o.Records
	s.Ingested += o.Ingested
	s.Rejected += o.Rejected
	s.Skipped += o.Skipped
}

// Ingester verarbeitet Records strikt nacheinander, jeden in einer eigenen Transaktion.
type Ingester struct {
	DB        storage.Transactor
	Mapper    *pubmed.Mapper
	Vocab     *VocabularyCache
	Logger    *zap.Logger
	RecordTag string
}

// NewIngester erstellt einen Ingester mit frischem Vokabular-Cache.
func NewIngester(db storage.Transactor, logger *zap.Logger, recordTag string) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recordTag == "" {
		recordTag = "PubmedArticle"
	}
	return &Ingester{
		DB:        db,
		Mapper:    pubmed.NewMapper(logger),
		Vocab:     NewVocabularyCache(),
		Logger:    logger,
		RecordTag: recordTag,
	}
}

// IngestStream liest alle Records aus r. Kaputtes XML und Persistenzfehler
// brechen den Lauf ab; abgelehnte Records werden nur gezählt.
func (in *Ingester) IngestStream(ctx context.Context, r io.Reader, source string) (RunStats, error) {
	var stats RunStats
	log := in.Logger.With(zap.String("source", source))

	body, err := xmlstream.OpenEnvelope(r)
	if err != nil {
		return stats, fmt.Errorf("open %s: %w", source, err)
	}
	defer body.Close()

	dec := xmlstream.NewDecoder(body, in.RecordTag)
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		node, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error("XML-Stream abgebrochen", zap.Int64("offset", dec.InputOffset()), zap.Error(err))
			return stats, fmt.Errorf("%s: %w", source, err)
		}
		stats.Records++

		outcome, err := in.IngestDocument(ctx, in.Mapper.Map(node))
		if err != nil {
			return stats, fmt.Errorf("%s: record %d: %w", source, stats.Records, err)
		}
		stats.add(outcome)
		recordsTotal.WithLabelValues(outcome.String()).Inc()
	}

	log.Info("Datei verarbeitet",
		zap.Int("records", stats.Records),
		zap.Int("ingested", stats.Ingested),
		zap.Int("rejected", stats.Rejected),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("took", time.Since(start)),
	)
	return stats, nil
}

// IngestDocument persistiert einen Record atomar. Leere Dokumente werden
// abgelehnt, bereits vorhandene PMIDs übersprungen.
func (in *Ingester) IngestDocument(ctx context.Context, doc pubmed.PubmedArticle) (Outcome, error) {
	if doc.Empty() {
		return OutcomeRejected, nil
	}
	log := in.Logger.With(zap.String("pmid", doc.PMID()))

	outcome := OutcomeIngested
	err := in.DB.WithTransaction(ctx, func(st storage.Store) error {
		exists, err := logged(log, "citation_exists", func() (bool, error) {
			return st.LookupOne(ctx, &models.Citation{}, "pmid", doc.PMID())
		})
		if err != nil {
			return err
		}
		if exists {
			outcome = OutcomeSkipped
			return nil
		}

		return in.persist(ctx, st, log, doc)
	})
	if err != nil {
		log.Error("Record nicht gespeichert", zap.Error(err))
		return OutcomeIngested, err
	}
	if outcome == OutcomeSkipped {
		log.Debug("Citation existiert bereits")
	}
	return outcome, nil
}

// persist löst alle Entitäten auf und schreibt den Graphen. Wiederholte
// Aufrufe mit demselben Dokument erzeugen keine neuen Zeilen.
func (in *Ingester) persist(ctx context.Context, st storage.Store, log *zap.Logger, doc pubmed.PubmedArticle) error {
	resolved, err := in.resolveEntities(ctx, st, log, doc)
	if err != nil {
		return err
	}
	graph, err := logged(log, "graph", func() (*Graph, error) {
		return BuildGraph(doc, resolved)
	})
	if err != nil {
		return err
	}
	_, err = logged(log, "persist", func() (int, error) {
		return graph.Rows(), graph.Persist(ctx, st)
	})
	return err
}

// logged protokolliert einen Schritt, bevor er läuft, und misst seine Dauer.
func logged[T any](log *zap.Logger, step string, fn func() (T, error)) (T, error) {
	log.Debug("Schritt", zap.String("step", step))
	start := time.Now()
	v, err := fn()
	stepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	return v, err
}
