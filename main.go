package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/namecache"
	"media-catalog/internal/notify"
	"media-catalog/internal/refresh"
	"media-catalog/internal/repository"
	"media-catalog/internal/resolver"
	"media-catalog/internal/startup"
	"media-catalog/internal/validation"
)

func main() {
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := repository.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	fs := filesystem.NewOS()
	refresher := refresh.New(repo)

	pathResolver := resolver.NewPathResolver(fs, config.LibraryDir,
		resolver.DefaultRules(), resolver.DefaultChain())

	root, err := resolveRoot(ctx, pathResolver, config.LibraryDir)
	if err != nil {
		startup.LogFatal("Failed to resolve library root: %v", err)
	}

	transport := notify.NewWebhookTransport(config.WebhookURL, 10*time.Second)
	var notifier *notify.Notifier
	if transport != nil {
		notifier = notify.New(transport)
	} else {
		notifier = notify.New(nil)
	}
	defer notifier.Close()

	people := namecache.New(fs, repo, refresher, namecache.Paths{
		People:  config.PeopleDir,
		Studios: config.StudiosDir,
		Genres:  config.GenresDir,
		Years:   config.YearsDir,
	})

	scanner := validation.NewFolderScanner(fs, pathResolver, refresher, repo, notifier)
	users := validation.ParseUsers(config.Users)
	views := validation.NewViewValidator(fs, scanner, validation.DefaultViewsDir(config.LibraryDir))

	orchestrator := validation.NewOrchestrator(root, users, scanner, views, refresher, people)

	// Initial validation in the background so the ops surface comes up fast.
	trigger := make(chan struct{}, 1)
	trigger <- struct{}{}
	go runValidationLoop(ctx, orchestrator, config.ValidationInterval, config.PeopleInterval, trigger)

	srv := &http.Server{
		Addr:         ":" + config.MetricsPort,
		Handler:      setupRouter(orchestrator, trigger, config.MetricsEnabled),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, cancel)

	logging.Info("Ops server listening on :%s", config.MetricsPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// resolveRoot resolves the physical library root into the AggregateFolder
// that anchors every validation pass.
func resolveRoot(ctx context.Context, pr *resolver.PathResolver, libraryDir string) (*catalog.AggregateFolder, error) {
	entity, err := pr.ResolvePath(ctx, libraryDir, nil, nil)
	if err != nil {
		return nil, err
	}
	root, ok := entity.(*catalog.AggregateFolder)
	if !ok {
		return nil, fmt.Errorf("library root %s did not resolve to an aggregate folder", libraryDir)
	}
	return root, nil
}

// runValidationLoop drives periodic library validation and the people sweep.
func runValidationLoop(ctx context.Context, o *validation.Orchestrator, libraryInterval, peopleInterval time.Duration, trigger <-chan struct{}) {
	libraryTicker := time.NewTicker(libraryInterval)
	defer libraryTicker.Stop()
	peopleTicker := time.NewTicker(peopleInterval)
	defer peopleTicker.Stop()

	var runMu sync.Mutex

	runLibrary := func() {
		if !runMu.TryLock() {
			logging.Info("Validation already in progress, skipping")
			return
		}
		defer runMu.Unlock()
		if err := o.ValidateMediaLibrary(ctx, validation.ProgressFunc(func(pct float64) {
			logging.Debug("Library validation progress: %.1f%%", pct)
		})); err != nil {
			logging.Error("Library validation failed: %v", err)
		}
	}

	for {
		select {
		case <-trigger:
			runLibrary()
		case <-libraryTicker.C:
			runLibrary()
		case <-peopleTicker.C:
			if err := o.ValidatePeople(ctx, validation.Noop); err != nil {
				logging.Error("People validation failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func setupRouter(o *validation.Orchestrator, trigger chan<- struct{}, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		running, lastRun, lastTook := o.Status()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"running":         running,
			"lastRun":         lastRun,
			"lastRunDuration": lastTook.String(),
		})
	}).Methods("GET")

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		_, lastRun, _ := o.Status()
		if lastRun.IsZero() {
			http.Error(w, "initial validation pending", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	r.HandleFunc("/api/validate", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case trigger <- struct{}{}:
			w.WriteHeader(http.StatusAccepted)
		default:
			http.Error(w, "validation already queued", http.StatusConflict)
		}
	}).Methods("POST")

	return r
}

func handleShutdown(srv *http.Server, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Shutdown initiated (%s)", sig)
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelTimeout()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	logging.Info("Shutdown complete")
}
