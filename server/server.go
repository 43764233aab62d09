package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Bt1QPlay/cache"
	"Bt1QPlay/config"
	"Bt1QPlay/core/broadcast"
	"Bt1QPlay/core/player"
	"Bt1QPlay/db"
	"Bt1QPlay/logger"
	"Bt1QPlay/model"
	"Bt1QPlay/repository"
	"Bt1QPlay/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies, builds the shared session and serves
// the HTTP control surface until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	})
	defer logger.Sync()

	// 目录数据库不可用时无法提供任何曲目，直接退出
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.AutoMigrate(&model.Track{}); err != nil {
		logger.Fatal("failed to migrate models", logger.ErrorField(err))
	}

	// Redis 不可用时音量退化为仅内存保存
	var store player.VolumeStore
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("redis unavailable, volume persistence disabled", logger.ErrorField(err))
	} else {
		store = cache.NewVolumeCache()
		defer cache.CloseRedis()
	}

	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			logger.Warn("minio unavailable, serving raw file paths", logger.ErrorField(err))
		}
	}

	hub := NewPlayerHub()
	go hub.Run()
	defer hub.Stop()

	// 全局模式：整个服务进程只有这一个共享会话
	var session *player.Session
	pushState := func() {
		if session != nil {
			hub.BroadcastState(session.Snapshot())
		}
	}

	session, err := player.NewSession(
		player.NewWallClockSource(cfg.PlayerTickInterval),
		broadcast.Default(),
		store,
		player.Config{
			FadeEnabled:   cfg.PlayerFadeEnabled,
			FadeDuration:  cfg.PlayerFadeDuration,
			PersistVolume: cfg.PlayerPersistVolume,
			StorageKey:    cfg.PlayerVolumeKey,
			DefaultVolume: cfg.PlayerDefaultVolume,
			OnPlay:        func(player.Track) { pushState() },
			OnPause:       pushState,
			OnEnd:         pushState,
			OnTimeUpdate:  func(float64) { pushState() },
		},
	)
	if err != nil {
		logger.Fatal("failed to construct player session", logger.ErrorField(err))
	}
	defer session.Close()

	trackRepo := repository.NewGormTrackRepository(db.DB)
	apiHandler := NewAPIHandler(session, trackRepo, hub, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	if cfg.JWTSecret != "" {
		api.Use(JWTAuthMiddleware(cfg.JWTSecret))
	}

	api.HandleFunc("/player/state", apiHandler.HandleState).Methods(http.MethodGet)
	api.HandleFunc("/player/play", apiHandler.HandlePlay).Methods(http.MethodPost)
	api.HandleFunc("/player/pause", apiHandler.HandlePause).Methods(http.MethodPost)
	api.HandleFunc("/player/toggle", apiHandler.HandleToggle).Methods(http.MethodPost)
	api.HandleFunc("/player/seek", apiHandler.HandleSeek).Methods(http.MethodPost)
	api.HandleFunc("/player/volume", apiHandler.HandleVolume).Methods(http.MethodPost)
	api.HandleFunc("/player/stop", apiHandler.HandleStop).Methods(http.MethodPost)
	api.HandleFunc("/tracks", apiHandler.HandleListTracks).Methods(http.MethodGet)
	api.HandleFunc("/tracks", apiHandler.HandleCreateTrack).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{id:[0-9]+}", apiHandler.HandleGetTrack).Methods(http.MethodGet)

	router.HandleFunc("/ws/player", hub.HandlePlayerWS(session))

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("player server listening", logger.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
}

// corsMiddleware 允许任意来源的组件访问控制接口
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
