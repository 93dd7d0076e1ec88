package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"medline-loader/models"
	"medline-loader/providers"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceFunc wählt die Quelle passend zu einer Location.
type SourceFunc func(ctx context.Context, location string) (providers.Source, error)

// SyncService importiert alle noch nicht abgeschlossenen Dateien einer Quelle.
// Der Fortschritt pro Datei steht in ingested_files.
type SyncService struct {
	DB       *gorm.DB
	Source   providers.Source
	Ingester *Ingester
	Logger   *zap.Logger
	// SourceFor hat Vorrang vor Source und wird pro Lauf aufgerufen.
	SourceFor SourceFunc
	// Force importiert auch Dateien, die bereits als abgeschlossen gelten.
	Force bool

	mu      sync.Mutex
	running atomic.Bool
}

// SyncResult fasst einen Lauf zusammen.
type SyncResult struct {
	RunID   string   `json:"run_id"`
	Files   int      `json:"files"`
	Skipped int      `json:"skipped_files"`
	Stats   RunStats `json:"stats"`
}

func NewSyncService(db *gorm.DB, source providers.Source, ingester *Ingester, logger *zap.Logger) *SyncService {
	return &SyncService{DB: db, Source: source, Ingester: ingester, Logger: logger}
}

// Run verarbeitet die Dateien unter location in lexikalischer Reihenfolge.
// Es läuft höchstens ein Sync gleichzeitig; der erste Fehler beendet den Lauf.
func (s *SyncService) Run(ctx context.Context, location string) (SyncResult, error) {
	if !s.mu.TryLock() {
		return SyncResult{}, ErrSyncRunning
	}
	defer s.mu.Unlock()
	s.running.Store(true)
	defer s.running.Store(false)

	res := SyncResult{RunID: uuid.NewString()}
	src, err := s.sourceFor(ctx, location)
	if err != nil {
		return res, err
	}
	log := s.Logger.With(zap.String("run_id", res.RunID), zap.String("source", src.Name()))

	files, err := src.List(ctx, location)
	if err != nil {
		log.Error("Dateien konnten nicht gelistet werden", zap.String("location", location), zap.Error(err))
		return res, err
	}
	done, err := s.completed(ctx, files)
	if err != nil {
		return res, err
	}
	log.Info("Starte Sync", zap.Int("files", len(files)), zap.Int("completed", len(done)))

	for _, f := range files {
		if done[f] && !s.Force {
			res.Skipped++
			continue
		}
		stats, err := s.IngestFile(ctx, src, f, res.RunID)
		res.Files++
		res.Stats.Merge(stats)
		if err != nil {
			log.Error("Sync abgebrochen", zap.String("file", f), zap.Error(err))
			return res, err
		}
	}

	log.Info("Sync abgeschlossen",
		zap.Int("files", res.Files),
		zap.Int("skipped_files", res.Skipped),
		zap.Int("ingested", res.Stats.Ingested),
	)
	return res, nil
}

// Busy meldet, ob gerade ein Sync läuft.
func (s *SyncService) Busy() bool {
	return s.running.Load()
}

func (s *SyncService) sourceFor(ctx context.Context, location string) (providers.Source, error) {
	if s.SourceFor != nil {
		return s.SourceFor(ctx, location)
	}
	if s.Source == nil {
		return nil, fmt.Errorf("no source for %q", location)
	}
	return s.Source, nil
}

// IngestFile importiert eine Datei und protokolliert Start und Ende in ingested_files.
func (s *SyncService) IngestFile(ctx context.Context, src providers.Source, location, runID string) (RunStats, error) {
	row := models.IngestedFile{Location: location, RunID: runID, Status: models.FileStatusRunning}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location"}},
		DoUpdates: clause.AssignmentColumns([]string{"run_id", "status", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return RunStats{}, err
	}

	stats, err := s.ingest(ctx, src, location)
	if ferr := s.finish(ctx, location, stats, err); ferr != nil && err == nil {
		err = ferr
	}
	return stats, err
}

func (s *SyncService) ingest(ctx context.Context, src providers.Source, location string) (RunStats, error) {
	rc, err := src.Open(ctx, location)
	if err != nil {
		return RunStats{}, err
	}
	defer rc.Close()
	return s.Ingester.IngestStream(ctx, rc, location)
}

// finish schreibt den Endstatus auch dann, wenn ctx bereits abgebrochen ist.
func (s *SyncService) finish(ctx context.Context, location string, stats RunStats, ingestErr error) error {
	status, msg := models.FileStatusComplete, ""
	if ingestErr != nil {
		status, msg = models.FileStatusFailed, ingestErr.Error()
	}
	filesTotal.WithLabelValues(status).Inc()

	return s.DB.WithContext(context.WithoutCancel(ctx)).
		Model(&models.IngestedFile{}).
		Where("location = ?", location).
		Updates(map[string]any{
			"status":      status,
			"records":     stats.Records,
			"ingested":    stats.Ingested,
			"rejected":    stats.Rejected,
			"skipped":     stats.Skipped,
			"error":       msg,
			"finished_at": time.Now(),
		}).Error
}

func (s *SyncService) completed(ctx context.Context, files []string) (map[string]bool, error) {
	done := make(map[string]bool)
	if len(files) == 0 {
		return done, nil
	}
	var locations []string
	err := s.DB.WithContext(ctx).Model(&models.IngestedFile{}).
		Where("status = ? AND location IN ?", models.FileStatusComplete, files).
		Pluck("location", &locations).Error
	if err != nil {
		return nil, err
	}
	for _, l := range locations {
		done[l] = true
	}
	return done, nil
}
