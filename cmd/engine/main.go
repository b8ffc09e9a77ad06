package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobboard-engine/internal/config"
	"jobboard-engine/internal/events"
	"jobboard-engine/internal/gateway"
	"jobboard-engine/internal/httpapi"
	"jobboard-engine/internal/poll"
	"jobboard-engine/internal/scrape"
	"jobboard-engine/internal/secrets"
	"jobboard-engine/internal/store"
	"jobboard-engine/internal/tracker"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[engine] .env ignored: %v", err)
	}
	if err := run(); err != nil {
		log.Fatalf("[engine] %v", err)
	}
}

// run owns every resource the engine opens so its defers release them
// before main exits.
func run() error {
	// Engine data dir: env (the desktop shell passes one) or the working dir.
	dataDir := os.Getenv("JOBBOARD_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	lock, err := store.LockDataDir(dataDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		if err := config.OverlayStages(&cfg, filepath.Join(dataDir, "stages.yml")); err != nil {
			return cfg, fmt.Errorf("stages.yml: %w", err)
		}
		config.ApplyEnv(&cfg)
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !vr.OK() {
		return fmt.Errorf("config invalid (%s): %v", userCfgPath, vr.Errors)
	}
	cfgVal.Store(cfg)

	stages, err := cfg.StageSet()
	if err != nil {
		return fmt.Errorf("stages: %w", err)
	}

	dbPath := filepath.Join(dataDir, "jobboard.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	hub := events.NewHub()
	sessions := secrets.NewManager(secrets.KeyringAccount(cfg.Auth.KeyringAccount), cfg.Remote.BaseURL, hub)
	sessions.EventType = events.SessionExpired

	gw, err := newGateway(cfg, sessions)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	tr := tracker.New(gw, tracker.Options{
		Stages:        stages,
		Notify:        hub,
		OnAuthError:   sessions.HandleAuthError,
		RemoteTimeout: time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
	})

	// Last snapshot first so the board renders before the network answers.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if snap, ok, err := store.LoadSnapshot(ctx, db.Pool); err != nil {
		log.Printf("[snapshot] load failed: %v", err)
	} else if ok && tr.Restore(snap) {
		log.Printf("[snapshot] restored jobs=%d saved_at=%s", tr.Len(), snap.SavedAt.Format(time.RFC3339))
	}

	syncer := poll.NewSyncer(tr, time.Duration(cfg.Remote.TimeoutSeconds)*time.Second)
	snapshots := poll.NewSnapshotWriter(db.Pool, tr)
	defer func() {
		stop()
		drain(tr, snapshots)
	}()
	go syncer.Run(ctx, time.Duration(cfg.Sync.RefetchSeconds)*time.Second)
	go snapshots.Run(ctx, time.Duration(cfg.Sync.SnapshotSeconds)*time.Second)

	mux := httpapi.NewMux(httpapi.Deps{
		Tracker:     tr,
		DB:          db.Pool,
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		Syncer:      syncer,
		Snapshots:   snapshots,
		Importer:    scrape.NewImporter(1.0, 2),
		Sessions:    sessions,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.Handler(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token := os.Getenv("JOBBOARD_SHUTDOWN_TOKEN")
	if token == "" {
		if token, err = randomToken(16); err != nil {
			return err
		}
		// the desktop shell reads this line from stdout
		fmt.Printf("SHUTDOWN_TOKEN=%s\n", token)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	go func() {
		<-ctx.Done()
		shutdownServer(srv)
	}()

	log.Printf("engine listening on http://%s (db=%s stages=%d)", addr, dbPath, stages.Len())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[engine] serve: %v", err)
	}
	return nil
}

func newGateway(cfg config.Config, tokens gateway.TokenSource) (gateway.Gateway, error) {
	switch cfg.Remote.Kind {
	case config.RemoteSupabase:
		return gateway.NewSupabaseGateway(cfg.Remote.SupabaseURL, cfg.Remote.SupabaseKey)
	default:
		return gateway.NewHTTPGateway(cfg.Remote.BaseURL, tokens, gateway.HTTPOptions{
			Timeout:           time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
			RequestsPerSecond: cfg.Remote.RequestsPerSecond,
			Burst:             cfg.Remote.Burst,
		}), nil
	}
}

// drain waits for in-flight remote calls and writes a final snapshot.
func drain(tr *tracker.Store, snapshots *poll.SnapshotWriter) {
	_ = tr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := snapshots.SaveOnce(ctx); err != nil {
		log.Printf("[snapshot] final save failed: %v", err)
	}
	log.Printf("[engine] stopped jobs=%d", tr.Len())
}
