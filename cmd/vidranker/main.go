package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/antoniostano/vidranker/internal/ads"
	"github.com/antoniostano/vidranker/internal/config"
	"github.com/antoniostano/vidranker/internal/history"
	"github.com/antoniostano/vidranker/internal/httpapi"
	"github.com/antoniostano/vidranker/internal/imagegen"
	"github.com/antoniostano/vidranker/internal/observability"
	"github.com/antoniostano/vidranker/internal/seo"
	"github.com/antoniostano/vidranker/internal/studio"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv load skipped: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := observability.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	backend, err := history.NewBackend(ctx, cfg.HistoryPath, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	store := history.NewStore(backend, history.Options{
		Limit:   cfg.HistoryLimit,
		Logger:  logger.With("component", "history"),
		Metrics: metrics,
	})
	defer store.Close()
	logger.Info("history backend ready", "mode", store.Mode(), "limit", cfg.HistoryLimit)

	seoGen := seo.NewGenerator(seo.NewHuggingFaceClient(cfg.SEOModelURL, cfg.HuggingFaceAPIKey), seo.Options{
		Timeout: cfg.SEOTimeout,
		Logger:  logger.With("component", "seo"),
		Metrics: metrics,
	})

	renderer, err := imagegen.NewCanvasRenderer()
	if err != nil {
		log.Fatalf("canvas renderer init failed: %v", err)
	}
	chain := imagegen.NewChain([]imagegen.Stage{
		{Method: imagegen.MethodServiceA, Provider: providerA(cfg), Timeout: cfg.ProviderATimeout},
		{Method: imagegen.MethodServiceB, Provider: providerB(cfg), Timeout: cfg.ProviderBTimeout},
	}, renderer, imagegen.Options{
		ProbeTimeout: cfg.ProbeTimeout,
		Logger:       logger.With("component", "imagegen"),
		Metrics:      metrics,
	})

	studioOpts := studio.Options{
		Logger:  logger.With("component", "studio"),
		Metrics: metrics,
	}
	var adsManager *ads.Manager
	if cfg.AdsEnabled {
		adsManager = newAdsManager(cfg, logger.With("component", "ads"), metrics)
		if err := adsManager.Initialize(ctx); err != nil {
			logger.Warn("ad networks partially unavailable", "error", err)
		}
		studioOpts.Ads = adsManager
		studioOpts.AdNetwork = ads.NetworkAdMob
	}

	st := studio.New(seoGen, chain, store, studioOpts)

	api := httpapi.New(cfg, st, adsManager, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Info("server listening", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
		_ = httpServer.Close()
	}
	if adsManager != nil {
		if err := adsManager.Close(shutdownCtx); err != nil {
			logger.Warn("ad networks teardown failed", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func providerA(cfg config.Config) imagegen.Provider {
	switch cfg.ImageProviderA {
	case "huggingface":
		return imagegen.NewHuggingFace(cfg.HuggingFaceImageURL, cfg.HuggingFaceAPIKey)
	case "aiml":
		return imagegen.NewAIML(cfg.AIMLBaseURL, cfg.AIMLAPIKey)
	default:
		return nil
	}
}

func providerB(cfg config.Config) imagegen.Provider {
	if cfg.ImageProviderB != "prodia" {
		return nil
	}
	return imagegen.NewProdia(cfg.ProdiaBaseURL, cfg.ProdiaAPIKey, cfg.ProdiaPollInterval, cfg.ProdiaMaxPolls)
}

// newAdsManager wires both networks through the logging bridge; a server has
// no native SDK, so the bridge records what a device would display.
func newAdsManager(cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) *ads.Manager {
	bridge := ads.NewLoggingBridge(logger)
	opts := ads.Options{
		Cooldown: cfg.InterstitialCooldown,
		Logger:   logger,
		Metrics:  metrics,
	}
	admob := ads.NewAdapter(ads.Placement{
		Network:        ads.NetworkAdMob,
		AppID:          cfg.AdMobAppID,
		BannerID:       cfg.AdMobBannerID,
		InterstitialID: cfg.AdMobInterstitialID,
		Testing:        cfg.AdsTestMode,
	}, bridge, opts)
	meta := ads.NewAdapter(ads.Placement{
		Network:        ads.NetworkMeta,
		AppID:          cfg.MetaAppID,
		BannerID:       cfg.MetaBannerPlacementID,
		InterstitialID: cfg.MetaInterstitialPlacementID,
		Testing:        cfg.AdsTestMode,
	}, bridge, opts)
	return ads.NewManager(admob, meta)
}
