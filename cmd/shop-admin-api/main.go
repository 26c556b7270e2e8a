// Package main boots the shop admin API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/catalog"
	"github.com/mallkit/shop-admin-api/internal/config"
	httpapi "github.com/mallkit/shop-admin-api/internal/http"
	"github.com/mallkit/shop-admin-api/internal/obs"
	"github.com/mallkit/shop-admin-api/internal/order"
	"github.com/mallkit/shop-admin-api/internal/seed"
	"github.com/mallkit/shop-admin-api/internal/store"
	"github.com/mallkit/shop-admin-api/internal/store/memstore"
	"github.com/mallkit/shop-admin-api/internal/store/postgres"
	"github.com/mallkit/shop-admin-api/internal/upload"
	"github.com/mallkit/shop-admin-api/internal/user"
	"github.com/mallkit/shop-admin-api/internal/wechat"
)

func main() {
	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			obs.Logger.Error("store_open_error", "error", err)
			os.Exit(1)
		}
		st = pg
		obs.Logger.Info("store_ready", "backend", "postgres")
	} else {
		st = memstore.New()
		obs.Logger.Info("store_ready", "backend", "memory")
	}

	if cfg.SeedOnStart {
		if err := seed.Run(ctx, st); err != nil {
			obs.Logger.Error("seed_error", "error", err)
			os.Exit(1)
		}
	}

	guard := auth.NewGuard(cfg.JWTSecret, cfg.TokenTTL)
	saver, err := upload.NewSaver(cfg.UploadDir, cfg.MaxUploadBytes, cfg.PublicBaseURL)
	if err != nil {
		obs.Logger.Error("upload_dir_error", "error", err)
		os.Exit(1)
	}
	wcClient := wechat.NewClient(cfg.WeChatAppID, cfg.WeChatSecret, cfg.WeChatAuthBaseURL, cfg.WeChatAPIBaseURL)

	app := httpapi.NewApp(cfg, guard,
		catalog.NewService(st),
		order.NewService(st),
		user.NewService(st, guard),
		wechat.NewService(wcClient, st, guard, cfg.WeChatTokenTTL),
		saver,
	)
	metrics := obs.NewServerMetrics()
	mux := httpapi.NewRouter(app, metrics)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	st.Close()
	obs.Logger.Info("service_stopped")
}
