package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"barrage/api"
	"barrage/config"
	"barrage/handlers"
	"barrage/internal/kv"
	"barrage/internal/upstream"
	"barrage/services/comment"
	"barrage/services/search"
	"barrage/services/store"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	// Determine config path (env or default)
	configPath := os.Getenv("BARRAGE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("refusing to start: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Search cache backend
	var cache kv.Store
	switch settings.Cache.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(settings.Cache.Path), 0755); err != nil {
			log.Fatalf("failed to create cache directory: %v", err)
		}
		sqliteStore, err := kv.NewSqliteStore(settings.Cache.Path)
		if err != nil {
			log.Fatalf("failed to open sqlite cache: %v", err)
		}
		cache = sqliteStore
		log.Printf("[main] sqlite search cache at %s", settings.Cache.Path)
	default:
		cache = kv.NewMemoryStore()
		log.Printf("[main] in-memory search cache")
	}
	defer cache.Close()

	timeout := time.Duration(settings.Upstream.RequestTimeoutSec) * time.Second
	httpc := upstream.New(nil, timeout)

	// Comment pipeline: platform clients behind the router, bridge as
	// last resort
	bridge := comment.NewBridge(httpc, settings.Upstream.BridgeServer, settings.Upstream.MaxRetryCount)
	router := comment.NewRouter(bridge,
		comment.NewBilibiliClient(httpc, settings.Upstream.BilibiliCookie),
		comment.NewIqiyiClient(httpc),
		comment.NewTencentClient(httpc),
		comment.NewMangoClient(httpc),
		comment.NewYoukuClient(httpc, settings.Upstream.YoukuMsgSignKey, settings.YoukuBatchSize()),
		comment.NewRenrenClient(httpc, settings.Upstream.RenrenAESKey),
		comment.NewHanjuTVClient(httpc),
	)

	// Search pipeline
	var providers []search.Provider
	for _, name := range settings.Search.Providers {
		switch name {
		case "360kan":
			providers = append(providers, search.NewKan360Provider(httpc, settings.Upstream.AllowedPlatforms))
		case "vod":
			if settings.Upstream.VodServer != "" {
				providers = append(providers, search.NewVodProvider(httpc, settings.Upstream.VodServer, settings.Upstream.AllowedPlatforms))
			}
		case "renren":
			providers = append(providers, search.NewRenrenProvider(httpc, settings.Upstream.RenrenSignSecret, settings.Upstream.RenrenAESKey))
		case "hanjutv":
			providers = append(providers, search.NewHanjuTVProvider(httpc))
		default:
			log.Printf("[main] unknown search provider %q ignored", name)
		}
	}
	searchSvc := search.NewService(cache,
		time.Duration(settings.Search.CacheTTLMinutes)*time.Minute,
		settings.Search.MaxResults,
		providers...)

	idStore := store.New(settings.Store.MaxPrograms, settings.Store.MaxEpisodes)

	// HTTP front door
	r := mux.NewRouter()
	api.Register(r,
		handlers.NewCommentHandler(router, idStore, 3*timeout),
		handlers.NewSearchHandler(searchSvc, idStore),
		handlers.NewBangumiHandler(idStore),
		handlers.NewMatchHandler(searchSvc, idStore),
		handlers.NewCacheHandler(searchSvc, idStore),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] listening on %s (%d search providers)", addr, len(providers))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("[main] shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}
	log.Println("[main] shutdown complete")
}
