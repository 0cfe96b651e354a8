package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/config"
	"github.com/qrmuseum/museum-api/internal/database"
	"github.com/qrmuseum/museum-api/internal/handler"
	"github.com/qrmuseum/museum-api/internal/logger"
	"github.com/qrmuseum/museum-api/internal/middleware"
	"github.com/qrmuseum/museum-api/internal/progress"
	"github.com/qrmuseum/museum-api/internal/queue"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/router"
	"github.com/qrmuseum/museum-api/internal/service"
	"github.com/qrmuseum/museum-api/internal/storage"
)

func main() {
	cfg := config.Load()
	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	visitors := repository.NewVisitorRepo(db)
	exhibits := repository.NewExhibitRepo(db)
	contents := repository.NewContentRepo(db)
	comments := repository.NewCommentRepo(db)
	visits := repository.NewVisitRepo(db)
	museum := repository.NewMuseumRepo(db)
	stats := repository.NewStatsRepo(db)

	if _, err := museum.Current(ctx); err != nil {
		return err
	}

	storeCfg := config.LoadStorageConfig()
	store, err := storage.New(ctx, storeCfg)
	if err != nil {
		return err
	}
	maxUpload := int64(storeCfg.MaxUploadMB) << 20

	rdb := config.NewRedisClient(config.LoadRedisConfig(), zl)
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	var publisher handler.ActivityPublisher
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		publisher = service.NewActivityPublisher(qcfg.URL, qcfg.ActivityQ, zl)
		if qcfg.RunConsumer {
			consumer := queue.NewConsumer(qcfg.URL, qcfg.ActivityQ, qcfg.LogDir, zl)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					zl.Error("activity consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	tracker := progress.NewTracker(db, visits, visitors, zl)
	go purgeTokens(ctx, tokens, zl)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(zl))
	rlCfg := config.LoadRateLimitConfig()
	e.Use(middleware.NewTokenBucket(rlCfg, rdb, zl))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, visitors, store, zl), cfg.JWTSecret,
		middleware.NewTokenBucket(rlCfg.Auth(), rdb, zl))
	router.RegisterPublic(e, &handler.PublicHandler{
		Museum: museum, Exhibits: exhibits, Contents: contents, Comments: comments,
		Visitors: visitors, Visits: visits, Tracker: tracker, Store: store,
		Publisher: publisher, Log: zl,
	}, cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterVisitor(e, &handler.VisitorHandler{
		Exhibits: exhibits, Contents: contents, Comments: comments, Visitors: visitors,
		Visits: visits, Tracker: tracker, Store: store, Publisher: publisher,
		MaxUpload: maxUpload, Log: zl,
	}, cfg.JWTSecret)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Cfg: cfg, Users: users, Visitors: visitors, Exhibits: exhibits, Contents: contents,
		Comments: comments, Museum: museum, Stats: stats, Store: store,
		MaxUpload: maxUpload, Log: zl,
	}, cfg.JWTSecret, middleware.PurgeCacheOnWrite(cacheCfg, rdb, zl))

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("db", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// purgeTokens drops dead refresh tokens at startup and then hourly.
func purgeTokens(ctx context.Context, tokens *repository.TokenRepo, zl *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		n, err := tokens.PurgeExpired(ctx, time.Now())
		if err != nil && ctx.Err() == nil {
			zl.Warn("refresh token purge failed", zap.Error(err))
		} else if n > 0 {
			zl.Info("refresh tokens purged", zap.Int64("count", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
