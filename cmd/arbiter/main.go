package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/arbiternet/arbiter/internal/api"
	"github.com/arbiternet/arbiter/internal/config"
	"github.com/arbiternet/arbiter/internal/conn"
	"github.com/arbiternet/arbiter/internal/detect"
	"github.com/arbiternet/arbiter/internal/metrics"
	"github.com/arbiternet/arbiter/internal/model"
	"github.com/arbiternet/arbiter/internal/netsys"
	"github.com/arbiternet/arbiter/internal/settings"
	"github.com/arbiternet/arbiter/internal/supplier"
)

func main() {
	// 1. Load and validate environment config
	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	if config.IsWeakToken(envCfg.AdminToken) {
		logger.Println("warning: ARBITER_ADMIN_TOKEN is weak; consider a longer random token")
	}

	// 2. Bearer score table
	scores := supplierScores(envCfg, logger)

	// 3. Persisted settings
	if err := os.MkdirAll(envCfg.StateDir, 0o755); err != nil {
		logger.Fatalf("create state dir: %v", err)
	}
	store, err := settings.Open(filepath.Join(envCfg.StateDir, "settings.db"), logger)
	if err != nil {
		logger.Fatalf("open settings store: %v", err)
	}
	defer store.Close()

	// 4. Wire the engine. The detection manager reports into the service,
	// which does not exist yet when the manager is built, so the callback
	// closes over the variable.
	var svc *conn.Service
	det, err := detect.NewManager(detect.ManagerConfig{
		ProbeURL: func() string { return envCfg.ProbeURL },
		Prober:   detect.HTTPProber(),
		PingHost: envCfg.PingHost,
		OnResult: func(supplierID uint32, r detect.Result, q detect.QualityVerdict) {
			svc.HandleDetectionResult(supplierID, r, q)
		},
		Log:        logger,
		SweepSpec:  envCfg.DetectionSweepSchedule,
		VerdictTTL: envCfg.VerdictTTL,
	})
	if err != nil {
		logger.Fatalf("detection manager: %v", err)
	}

	collector := metrics.NewCollector(envCfg.MetricRTTBinWidthMS, envCfg.MetricRTTBinOverflowMS)
	svc = conn.NewService(conn.Config{
		Netsys:       &netsys.LogClient{Log: logger},
		Detect:       det,
		Settings:     store,
		Metrics:      collector,
		Scores:       scores,
		Log:          logger,
		RequestQuota: envCfg.RequestQuota,
	})
	svc.Start()
	det.Start()

	// 5. Create and start the API server
	startedAt := time.Now().UTC()
	srv := api.NewServer(api.ServerConfig{
		ListenAddress:   envCfg.ListenAddress,
		Port:            envCfg.APIPort,
		AdminToken:      envCfg.AdminToken,
		APIMaxBodyBytes: int64(envCfg.APIMaxBodyBytes),
		Service:         svc,
		Detection: model.DetectionConfig{
			ProbeURL:      envCfg.ProbeURL,
			ProbeTimeout:  config.Duration(envCfg.ProbeTimeout),
			PingHost:      envCfg.PingHost,
			SweepSchedule: envCfg.DetectionSweepSchedule,
			VerdictTTL:    config.Duration(envCfg.VerdictTTL),
		},
		StartedAt: startedAt,
	})

	go func() {
		logger.Printf("arbiter API server starting on %s:%d", envCfg.ListenAddress, envCfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("API server error: %v", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("received signal %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	det.Stop()
	svc.Stop()
	logger.Println("arbiter stopped")
}

// supplierScores loads the YAML score-table override when configured,
// falling back to the built-in table on any load error.
func supplierScores(envCfg *config.EnvConfig, logger *log.Logger) supplier.ScoreTable {
	if envCfg.ScoreTablePath == "" {
		return supplier.DefaultScores()
	}
	table, err := config.LoadScoreTable(envCfg.ScoreTablePath)
	if err != nil {
		logger.Printf("score table: %v; using built-in scores", err)
		return supplier.DefaultScores()
	}
	return table
}
