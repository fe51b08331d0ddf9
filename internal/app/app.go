package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"go.uber.org/zap"

	"github.com/drstein77/storefront/internal/boltkeeper"
	"github.com/drstein77/storefront/internal/catalog"
	"github.com/drstein77/storefront/internal/config"
	"github.com/drstein77/storefront/internal/controllers"
	"github.com/drstein77/storefront/internal/logger"
	"github.com/drstein77/storefront/internal/middleware"
	"github.com/drstein77/storefront/internal/pgkeeper"
	"github.com/drstein77/storefront/internal/rediskeeper"
	"github.com/drstein77/storefront/internal/storage"
)

type Server struct {
	srv    *http.Server
	ctx    context.Context
	keeper storage.Keeper

	Log *logger.Logger
}

// NewServer creates a new Server instance with the provided context
func NewServer(ctx context.Context) *Server {
	server := new(Server)
	server.ctx = ctx
	// zero-value logger is a no-op, safe until Serve installs the real one
	server.Log = &logger.Logger{}
	return server
}

// Serve starts the server and handles signal interruption for graceful shutdown
func (server *Server) Serve() {
	// create and initialize a new option instance
	option := config.NewOptions()
	option.ParseFlags()

	// get a new logger
	nLogger, err := logger.NewLogger(option.LogLevel())
	if err != nil {
		log.Fatalln(err)
	}
	server.Log = nLogger

	// pick the cart keeper: shared stores win over the local file
	server.keeper = selectKeeper(option, nLogger)

	client := catalog.NewClient(option.CatalogAPIURL(), option.CatalogTimeout(), nLogger)

	memStorage := storage.NewMemoryStorage(server.ctx, client, server.keeper,
		option.PageLimit(), option.SearchDebounce(), nLogger)

	basecontr := controllers.NewBaseController(server.ctx, memStorage, nLogger)
	reqLog := middleware.NewRequestLogger(nLogger)

	// create router and mount routes
	r := chi.NewRouter()
	r.Use(reqLog.Handler)
	r.Mount("/", basecontr.Route())

	// configure and start the server
	server.srv = startServer(r, option.RunAddr())
	nLogger.Info("server started", zap.String("addr", option.RunAddr()))

	// Create a channel to receive interrupt signals (e.g., CTRL+C)
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

	// Block execution until a signal is received
	sig := <-stopChan
	nLogger.Info("received signal", zap.String("signal", sig.String()))
}

// Shutdown stops the HTTP server and closes the keeper, giving in-flight
// requests the given grace period.
func (server *Server) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if server.srv != nil {
		if err := server.srv.Shutdown(ctx); err != nil {
			server.Log.Error("server shutdown failed", zap.Error(err))
		}
	}
	if server.keeper != nil {
		server.keeper.Close()
	}
	server.Log.Info("server stopped")
}

func selectKeeper(option *config.Options, nLogger *logger.Logger) storage.Keeper {
	if option.DataBaseDSN() != "" {
		if kp := pgkeeper.NewPGKeeper(option.DataBaseDSN, nLogger); kp != nil {
			return kp
		}
		nLogger.Warn("postgres keeper unavailable, falling back to local file")
	}
	if option.RedisURI() != "" {
		if kp := rediskeeper.NewRedisKeeper(option.RedisURI, nLogger); kp != nil {
			return kp
		}
		nLogger.Warn("redis keeper unavailable, falling back to local file")
	}
	if kp := boltkeeper.NewBoltKeeper(option.CartDBPath, nLogger); kp != nil {
		return kp
	}
	nLogger.Warn("running without cart persistence")
	return nil
}

func startServer(router chi.Router, address string) *http.Server {
	srv := &http.Server{
		Addr:    address,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	return srv
}
