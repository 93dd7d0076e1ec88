package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"medline-loader/config"
	"medline-loader/providers"
	"medline-loader/providers/eutils"
	"medline-loader/providers/localfs"
	"medline-loader/providers/s3bucket"
	"medline-loader/services"
	"medline-loader/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bündelt, was alle Kommandos brauchen.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *gorm.DB
	store *storage.DB
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "development" {
		return zap.NewDevelopment()
	}
	gin.SetMode(gin.ReleaseMode)
	return zap.NewProduction()
}

// setup lädt die Konfiguration, verbindet die Datenbank und migriert das Schema.
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging, err := newLogger(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}

	db, err := storage.Open(cfg)
	if err != nil {
		logging.Error("Failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
		return nil, err
	}
	logging.Info("Successfully connected to database.", zap.String("driver", cfg.DBDriver))

	logging.Info("Running database auto-migration...")
	if err := storage.Migrate(db); err != nil {
		logging.Error("Auto-migration failed", zap.Error(err))
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   logging,
		db:    db,
		store: storage.NewDB(db, cfg.DBBatchSize, cfg.DBTimeout),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

// source wählt die Quelle für location: "eutils:"-Locations gehen an NCBI,
// s3://-URIs und SYNC_SOURCE=s3 an den Bucket, alles andere ans lokale Dateisystem.
func (a *app) source(ctx context.Context, location string) (providers.Source, error) {
	if eutils.IsQuery(location) {
		src := eutils.New(a.cfg.PubMedBaseURL, a.cfg.PubMedAPIKey, a.cfg.PubMedBatchSize, a.log)
		src.Tool, src.Email = a.cfg.PubMedTool, a.cfg.PubMedEmail
		return src, nil
	}
	if !s3bucket.IsURI(location) && a.cfg.SyncSource != "s3" {
		return localfs.New(), nil
	}
	client, err := storage.NewS3Client(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("S3 client creation failed: %w", err)
	}
	return s3bucket.New(client, a.cfg.S3Bucket), nil
}

func (a *app) ingester() *services.Ingester {
	return services.NewIngester(a.store, a.log, a.cfg.RecordTag)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "medline-loader",
		Short:         "Loads MEDLINE/PubMed XML dumps into a relational database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newIngestCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newMeshCommand())
	return root
}

func newIngestCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "ingest <path|dir|s3://bucket/prefix|eutils:query>...",
		Short: "Ingest one or more dump files or directories.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			ingester := a.ingester()
			var total services.RunStats
			for _, location := range args {
				src, err := a.source(cmd.Context(), location)
				if err != nil {
					return err
				}
				syncer := services.NewSyncService(a.db, src, ingester, a.log)
				syncer.Force = force
				res, err := syncer.Run(cmd.Context(), location)
				total.Merge(res.Stats)
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "records=%d ingested=%d rejected=%d skipped=%d\n",
				total.Records, total.Ingested, total.Rejected, total.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-read files already recorded as complete")
	return cmd
}

func newMeshCommand() *cobra.Command {
	mesh := &cobra.Command{
		Use:   "mesh",
		Short: "Manage the MeSH reference vocabulary.",
	}
	mesh.AddCommand(&cobra.Command{
		Use:   "load <desc.xml[.gz]> <qual.xml[.gz]>",
		Short: "Load MeSH descriptors and qualifiers (insert-or-ignore).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			loader := services.NewMeshLoader(a.store, a.log, a.cfg.DBBatchSize)
			loads := []func(context.Context, io.Reader) (int, error){loader.LoadDescriptors, loader.LoadQualifiers}
			for i, location := range args {
				n, err := loadFile(cmd.Context(), a, location, loads[i])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", location, n)
			}
			return nil
		},
	})
	return mesh
}

func loadFile(ctx context.Context, a *app, location string, load func(context.Context, io.Reader) (int, error)) (int, error) {
	src, err := a.source(ctx, location)
	if err != nil {
		return 0, err
	}
	rc, err := src.Open(ctx, location)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return load(ctx, rc)
}
