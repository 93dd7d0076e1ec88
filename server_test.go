package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medline-loader/config"
	"medline-loader/providers"
	"medline-loader/services"
	"medline-loader/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSyncRouter(t *testing.T, sourceFor services.SourceFunc) (*gin.Engine, *services.SyncService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, db := testutil.Store(t)
	// die Sync-Goroutine darf nach Testende noch loggen
	log := zap.NewNop()

	syncer := services.NewSyncService(db, nil, services.NewIngester(st, log, ""), log)
	syncer.SourceFor = sourceFor

	router := gin.New()
	rg := router.Group("/sync", apiKeyAuthMiddleware(&config.Config{APISecretKey: "secret"}))
	setupSyncRoutes(rg, db, syncer, "/data/medline", log)
	return router, syncer
}

func postSync(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", key)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostSyncUsesSourceOfRequestedLocation(t *testing.T) {
	asked := make(chan string, 2)
	router, syncer := newSyncRouter(t, func(_ context.Context, location string) (providers.Source, error) {
		asked <- location
		return nil, errors.New("not reachable in tests")
	})

	tests := []struct {
		body string
		want string
	}{
		{`{"location":"eutils:asthma"}`, "eutils:asthma"},
		{``, "/data/medline"},
	}
	for _, tt := range tests {
		w := postSync(router, "secret", tt.body)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), tt.want)

		select {
		case got := <-asked:
			assert.Equal(t, tt.want, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("no source requested for %q", tt.want)
		}
		// der Hintergrundlauf muss beendet sein, sonst antwortet der nächste POST mit 409
		require.Eventually(t, func() bool { return !syncer.Busy() }, 5*time.Second, 10*time.Millisecond)
	}
}

func TestPostSyncRequiresAPIKey(t *testing.T) {
	router, _ := newSyncRouter(t, func(context.Context, string) (providers.Source, error) {
		t.Error("source must not be requested")
		return nil, errors.New("unexpected")
	})
	w := postSync(router, "wrong", `{"location":"eutils:asthma"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
