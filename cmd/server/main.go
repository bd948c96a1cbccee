package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"okeears-server/internal/config"
	"okeears-server/internal/graph"
	"okeears-server/internal/handler"
	"okeears-server/internal/logging"
	"okeears-server/internal/middleware"
	"okeears-server/internal/onenote"
	"okeears-server/internal/repository"
	"okeears-server/internal/service"
	"okeears-server/internal/session"
	"okeears-server/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sessions, err := session.NewRedisStore(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer sessions.Close()

	prefRepo, err := newPreferenceRepository(cfg, sessions, logger)
	if err != nil {
		logger.Fatal("Failed to set up preference store", zap.Error(err))
	}

	// Every Graph call made while serving a request uses the token of the
	// session AuthMiddleware put in the request context.
	graphClient := graph.NewClient(cfg.Graph.BaseURL, cfg.Graph.Resource, cfg.Graph.Timeout, session.NewTokenProvider(sessions))

	store := onenote.NewGraphStore(graphClient)
	cache := onenote.NewContainerCache()
	sharing := onenote.NewSharingCoordinator(graph.NewDriveSharer(graphClient, cfg.OneNote.ShareAlias), nil, logger)

	var autoShare *onenote.SharingCoordinator
	if cfg.OneNote.ShareOnCreate {
		autoShare = sharing
	}
	locator := onenote.NewLocator(store, cache, autoShare, cfg.OneNote.NotebookName, logger)

	layout, err := onenote.NewLayout(onenote.LayoutKind(cfg.OneNote.Layout), store, cfg.OneNote.PageTitle, nil)
	if err != nil {
		logger.Fatal("Failed to set up page layout", zap.Error(err))
	}

	// WebSocket Manager
	wsManager := websocket.NewManager(websocket.Options{
		MaxConnPerUser: cfg.WebSocket.MaxConnPerUser,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	}, logger)
	wsCtx, stopWS := context.WithCancel(context.Background())
	go wsManager.Run(wsCtx)
	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler(wsManager))

	directoryFor := func(token string) service.Directory {
		return graphClient.WithTokens(graph.StaticToken(token))
	}

	authService := service.NewAuthService(sessions, directoryFor, cfg.Graph.Resource, cfg.JWT.Secret, cfg.JWT.Expiration, logger)
	scopeService := service.NewScopeService(cfg.Scopes, prefRepo, cache, logger)
	subjectService := service.NewSubjectService(graphClient)
	okrService := service.NewOKRService(locator, layout, scopeService, sharing, wsManager, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	scopeHandler := handler.NewScopeHandler(scopeService, logger)
	subjectHandler := handler.NewSubjectHandler(subjectService, logger)
	okrHandler := handler.NewOKRHandler(okrService, logger)
	wsHandler := handler.NewWebSocketHandler(wsManager, sessions, cfg.JWT.Secret,
		cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, cfg.CORS.AllowedOrigins, logger)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/session", authHandler.CreateSession).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret, sessions))

	protected.HandleFunc("/auth/session", authHandler.DeleteSession).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/scopes", scopeHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/scopes/selected", scopeHandler.GetSelected).Methods("GET", "OPTIONS")
	protected.HandleFunc("/scopes/selected", scopeHandler.Select).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/me", subjectHandler.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/people", subjectHandler.People).Methods("GET", "OPTIONS")
	protected.HandleFunc("/subjects/{subjectId}/orgtree", subjectHandler.OrgTree).Methods("GET", "OPTIONS")

	protected.HandleFunc("/subjects/{subjectId}/objectives", okrHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/subjects/{subjectId}/objectives", okrHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/subjects/{subjectId}/objectives/{objectiveId}", okrHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/subjects/{subjectId}/objectives/{objectiveId}", okrHandler.Delete).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/subjects/{subjectId}/sharing", okrHandler.SharingStatus).Methods("GET", "OPTIONS")
	protected.HandleFunc("/sharing", okrHandler.Share).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler(sessions)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting Okeears server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Env),
			zap.String("layout", cfg.OneNote.Layout),
			zap.String("preferences", cfg.Preferences.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	stopWS()

	// Let background notebook shares finish before the process exits.
	sharing.Wait()

	logger.Info("Server stopped gracefully")
}

func newPreferenceRepository(cfg *config.Config, sessions *session.RedisStore, logger *zap.Logger) (repository.PreferenceRepository, error) {
	if cfg.Preferences.Backend == config.PreferencesRedis {
		return repository.NewRedisPreferenceRepository(sessions.Client()), nil
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CouchDB: %w", err)
	}

	ctx := context.Background()
	exists, err := client.DBExists(ctx, cfg.Database.Name)
	if err != nil {
		return nil, fmt.Errorf("check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, cfg.Database.Name); err != nil {
			return nil, fmt.Errorf("create database: %w", err)
		}
		logger.Info("Created database", zap.String("name", cfg.Database.Name))
	}

	logger.Info("Connected to CouchDB", zap.String("host", cfg.Database.Host), zap.String("port", cfg.Database.Port))
	return repository.NewCouchDBPreferenceRepository(client, cfg.Database.Name), nil
}

func healthHandler(sessions *session.RedisStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := sessions.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","service":"okeears-server","redis":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"okeears-server"}`))
	}
}
