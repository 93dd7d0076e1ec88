package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"medline-loader/config"
	"medline-loader/models"
	"medline-loader/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control plane and the scheduled incremental sync.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	// die Quelle folgt der Location, damit POST /sync auch s3:// und eutils: annimmt
	syncer := services.NewSyncService(a.db, nil, a.ingester(), a.log)
	syncer.SourceFor = a.source

	// Setup Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", healthHandler(a.db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rg := router.Group("/sync", apiKeyAuthMiddleware(a.cfg))
	setupSyncRoutes(rg, a.db, syncer, a.cfg.SyncLocation, a.log)

	// Setup Cron
	cronScheduler := cron.New()
	if a.cfg.SyncLocation == "" {
		a.log.Warn("SYNC_LOCATION not set, scheduled sync disabled")
	} else if _, err := cronScheduler.AddFunc(a.cfg.CronSchedule, func() {
		a.log.Info("Running scheduled sync job...")
		res, err := syncer.Run(ctx, a.cfg.SyncLocation)
		if err != nil {
			a.log.Error("Cron job failed", zap.String("run_id", res.RunID), zap.Error(err))
			return
		}
		a.log.Info("Cron job completed", zap.String("run_id", res.RunID), zap.Int("new_citations", res.Stats.Ingested))
	}); err != nil {
		return err
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	a.log.Info("Starting server", zap.String("port", a.cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + a.cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func setupSyncRoutes(rg *gin.RouterGroup, db *gorm.DB, syncer *services.SyncService, defaultLocation string, log *zap.Logger) {
	// Startet einen Sync im Hintergrund; optional mit abweichender Location.
	rg.POST("", func(c *gin.Context) {
		var req struct {
			Location string `json:"location"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}
		location := req.Location
		if location == "" {
			location = defaultLocation
		}
		if location == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no sync location configured"})
			return
		}
		if syncer.Busy() {
			c.JSON(http.StatusConflict, gin.H{"error": services.ErrSyncRunning.Error()})
			return
		}

		go func() {
			res, err := syncer.Run(context.Background(), location)
			switch {
			case errors.Is(err, services.ErrSyncRunning):
				log.Warn("Sync übersprungen, es läuft bereits einer")
			case err != nil:
				log.Error("Manueller Sync fehlgeschlagen", zap.String("run_id", res.RunID), zap.Error(err))
			default:
				log.Info("Manueller Sync abgeschlossen", zap.String("run_id", res.RunID), zap.Int("new_citations", res.Stats.Ingested))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"status": "started", "location": location})
	})

	// Letzte Dateien mit Status, neueste zuerst.
	rg.GET("/files", func(c *gin.Context) {
		var files []models.IngestedFile
		if err := db.WithContext(c.Request.Context()).Order("updated_at desc").Limit(100).Find(&files).Error; err != nil {
			log.Error("Database query for ingested files failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, files)
	})
}
