package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"golang-news-signal/internal/monitor/config"
	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/internal/monitor/service"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"
	"golang-news-signal/pkg/utils"
)

var (
	configPath    string
	signalsLimit  int
	chronological bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the news monitor loop",
	Run:   runServe,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Checks the monitor heartbeat and exits non-zero when it is stale or missing",
	Run:   runStatus,
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Prints the most recent signals",
	Run:   runSignals,
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func newLogger(cfg *config.Config) *logger.Logger {
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return appLogger
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := newLogger(cfg)
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Starting News Monitor", zap.String("name", cfg.App.Name), zap.Int("feeds", len(cfg.Feeds)))

	metrics.Init()
	fatal := func(msg string, err error) {
		appLogger.Fatal(msg, logger.KindField(logger.KindFatal), zap.Error(err))
	}

	st := newStores(cfg, appLogger)
	defer st.Close()

	seenRepo, err := st.seenItems(ctx)
	if err != nil {
		fatal("Failed to initialize seen ledger", err)
	}
	signalRepo, err := st.signals()
	if err != nil {
		fatal("Failed to initialize signal log", err)
	}
	heartbeatRepo, err := st.heartbeat()
	if err != nil {
		fatal("Failed to initialize heartbeat store", err)
	}
	prefRepo := repository.NewFilePreferenceRepository(cfg.Preferences.Path, cfg.Preferences.LegacyTokenPath, appLogger)
	feedRepo := repository.NewFeedRepository(cfg.Monitor.FetchTimeout)
	var articleRepo repository.ArticleRepository
	if cfg.Monitor.EnrichEmptySummaries {
		articleRepo = repository.NewArticleRepository(cfg.Monitor.FetchTimeout)
	}

	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fatal("Failed to initialize Gemini AI client", err)
	}
	aiRepo := repository.NewGeminiAIRepository(cfg.Gemini, appLogger, genAiClient)

	transport, err := newTransport(cfg, appLogger)
	if err != nil {
		fatal("Failed to initialize notification transport", err)
	}

	monitorSvc := service.NewMonitorService(service.MonitorDeps{
		Poller:      service.NewFeedPoller(feedRepo, seenRepo, cfg.Monitor.MaxConcurrentFeeds, appLogger),
		Classifier:  service.NewClassifier(aiRepo, aiRepo, cfg.Monitor, appLogger),
		Router:      service.NewNotificationRouter(transport, cfg.Monitor.MaxConcurrentSends, cfg.Monitor.SendTimeout, appLogger),
		SeenRepo:    seenRepo,
		SignalRepo:  signalRepo,
		PrefRepo:    prefRepo,
		Heartbeat:   heartbeatRepo,
		Articles:    articleRepo,
		Feeds:       cfg.Feeds,
		MaxParallel: cfg.Monitor.MaxConcurrentItems,
	}, appLogger)
	schedulerSvc := service.NewSchedulerService(monitorSvc, heartbeatRepo, cfg.Monitor.IdleDelay, cfg.Monitor.BurstDelay, appLogger)
	watchdog := service.NewWatchdog(heartbeatRepo, cfg.Monitor.HeartbeatStaleAfter, cfg.Monitor.WatchdogSchedule, utils.LoadLocation(cfg.Monitor.Location), appLogger)

	var wg sync.WaitGroup
	wg.Add(2)
	utils.GoSafe(func() {
		defer wg.Done()
		schedulerSvc.Start(ctx)
	})
	utils.GoSafe(func() {
		defer wg.Done()
		if err := watchdog.Start(ctx); err != nil {
			appLogger.Error("Watchdog not started", logger.KindField(logger.KindFatal), zap.Error(err))
		}
	})

	var e *echo.Echo
	if cfg.Metrics.Port > 0 {
		e = echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

		addr := fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port)
		utils.GoSafe(func() {
			appLogger.Info("Metrics server listening", zap.String("addr", addr))
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Metrics server failed", logger.KindField(logger.KindTransient), zap.Error(err))
			}
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down news monitor...")
	cancel()
	wg.Wait()

	if err := seenRepo.Flush(context.Background()); err != nil {
		appLogger.Error("Failed to flush seen ledger on shutdown", logger.KindField(logger.KindStorage), zap.Error(err))
	}
	if e != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}
	appLogger.Info("News monitor stopped.")
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	appLogger := newLogger(cfg)
	defer func() { _ = appLogger.Sync() }()

	st := newStores(cfg, appLogger)
	defer st.Close()

	heartbeatRepo, err := st.heartbeat()
	if err != nil {
		appLogger.Fatal("Failed to initialize heartbeat store", logger.KindField(logger.KindFatal), zap.Error(err))
	}
	watchdog := service.NewWatchdog(heartbeatRepo, cfg.Monitor.HeartbeatStaleAfter, cfg.Monitor.WatchdogSchedule, utils.LoadLocation(cfg.Monitor.Location), appLogger)

	status, err := watchdog.Check(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "heartbeat unreadable: %v\n", err)
		os.Exit(1)
	}
	if !status.Found {
		fmt.Println("no heartbeat recorded")
		os.Exit(1)
	}

	hb := status.Heartbeat
	fmt.Printf("phase=%s age=%s pid=%d message=%q\n", hb.Status, status.Age.Truncate(time.Second), hb.PID, hb.Message)
	if status.Stalled {
		fmt.Printf("stalled: no update for more than %s\n", cfg.Monitor.HeartbeatStaleAfter)
		os.Exit(1)
	}
}

func runSignals(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	appLogger := newLogger(cfg)
	defer func() { _ = appLogger.Sync() }()

	st := newStores(cfg, appLogger)
	defer st.Close()

	signalRepo, err := st.signals()
	if err != nil {
		appLogger.Fatal("Failed to initialize signal log", logger.KindField(logger.KindFatal), zap.Error(err))
	}
	signals, err := signalRepo.List(cmd.Context(), signalsLimit, !chronological)
	if err != nil {
		appLogger.Fatal("Failed to list signals", logger.KindField(logger.KindStorage), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(signals); err != nil {
		appLogger.Fatal("Failed to print signals", zap.Error(err))
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "monitor-service",
		Short: "Watches news feeds and pushes trading signals to subscribers",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-monitor.yaml", "Path to the configuration file")
	signalsCmd.Flags().IntVarP(&signalsLimit, "limit", "n", 20, "Number of signals to print (0 for all)")
	signalsCmd.Flags().BoolVar(&chronological, "chronological", false, "Print oldest first")

	rootCmd.AddCommand(serveCmd, statusCmd, signalsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing monitor-service CLI: %s\n", err)
		os.Exit(1)
	}
}
