package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pairpad/pairpad/internal/api"
	"github.com/pairpad/pairpad/internal/room"
	"github.com/pairpad/pairpad/internal/store"
	"github.com/pairpad/pairpad/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "pairpad-server",
		Usage: "realtime collaborative code room server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				EnvVars: []string{"PAIRPAD_DEBUG"},
			},
			&cli.StringFlag{
				Name:    "listen-address",
				Value:   ":3001",
				EnvVars: []string{"PAIRPAD_LISTEN_ADDRESS", "PORT"},
			},
			&cli.StringFlag{
				Name:    "client-origin",
				Value:   "http://localhost:5173",
				EnvVars: []string{"PAIRPAD_CLIENT_ORIGIN"},
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Usage:   "serve the bundled front-end from this directory when it exists",
				EnvVars: []string{"PAIRPAD_STATIC_DIR"},
			},
			&cli.StringFlag{
				Name:    "store-path",
				Usage:   "back rooms with a sqlite file instead of process memory",
				EnvVars: []string{"PAIRPAD_STORE_PATH"},
			},
		},
		Before: func(cctx *cli.Context) error {
			return setupLogging(cctx.Bool("debug"))
		},
		Action: run,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		zap.L().Fatal("unhandled error", zap.Error(err))
	}
}

func setupLogging(debugMode bool) error {
	var cfg zap.Config
	if debugMode {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level.SetLevel(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level.SetLevel(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{"stdout"}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func run(cctx *cli.Context) error {
	defer func() { _ = zap.L().Sync() }()

	roomStore, closeStore, err := buildStore(cctx.String("store-path"))
	if err != nil {
		return err
	}
	defer closeStore()

	machine := room.NewMachine(roomStore)
	hub := ws.NewHub(machine)
	go hub.Run()

	origin := cctx.String("client-origin")
	upgrader := ws.NewUpgrader(origin)

	router := mux.NewRouter()
	api.New(hub, machine).Register(router)
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, upgrader, w, r)
	}).Methods(http.MethodGet)

	if staticDir := cctx.String("static-dir"); staticDir != "" {
		if _, err := os.Stat(staticDir); err == nil {
			router.PathPrefix("/").Handler(spaHandler(staticDir))
			zap.L().Info("serving static assets", zap.String("dir", staticDir))
		}
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{origin}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowCredentials(),
	)

	srv := &http.Server{
		Addr:         listenAddr(cctx.String("listen-address")),
		Handler:      cors(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serverDone := make(chan struct{})
	go func() {
		zap.L().Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("http server failed", zap.Error(err))
		}
		close(serverDone)
	}()

	select {
	case <-serverDone:
	case <-cctx.Context.Done():
		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	return nil
}

func buildStore(path string) (room.Store, func(), error) {
	if path == "" {
		return store.NewMemory(), func() {}, nil
	}

	s, err := store.NewSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

// listenAddr tolerates a bare port from the PORT convention.
func listenAddr(addr string) string {
	if addr != "" && !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

// spaHandler serves the front-end bundle with an index.html fallback so
// client-side routes resolve after a refresh.
func spaHandler(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
