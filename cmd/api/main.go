package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"recipebox/internal/api"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/feed"
	"recipebox/internal/foodapi"
	"recipebox/internal/importer"
	"recipebox/internal/logger"
	"recipebox/internal/platform/chatllm"
	"recipebox/internal/platform/gemini"
	"recipebox/internal/platform/imagestore"
	"recipebox/internal/platform/translate"
	"recipebox/internal/recipe"
	"recipebox/internal/recommend"
	"recipebox/internal/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("Server failed", "error", err)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	recipes := recipe.NewPostgresStore(db)
	users := user.NewPostgresStore(db)
	feedStore := feed.NewPostgresStore(db)

	var translator importer.Translator
	if cfg.Translate.Enabled() {
		var cache translate.Cache
		if cfg.RedisAddr != "" {
			rdb, err := translate.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
			if err != nil {
				logger.Warn("Redis unavailable, translating without cache", "addr", cfg.RedisAddr, "error", err)
			} else {
				defer rdb.Close()
				cache = translate.NewRedisCache(rdb)
			}
		}
		translator = translate.NewClient(translate.Config{
			URL:          cfg.Translate.URL,
			ClientID:     cfg.Translate.ClientID,
			ClientSecret: cfg.Translate.ClientSecret,
			Source:       cfg.Translate.Source,
			Target:       cfg.Translate.Target,
			Delay:        cfg.Translate.Delay,
		}, cache, logger.Get())
	}

	fetcher := foodapi.NewClient(cfg.Import.BaseURL, cfg.Import.APIKey, cfg.Import.PageSize)
	imp := importer.New(fetcher, recipes, translator, cfg.Import.Limit, logger.Get())

	completer, closeCompleter, err := newCompleter(ctx, cfg.Recommend)
	if err != nil {
		return err
	}
	defer closeCompleter()
	recommender := recommend.NewService(recipes, completer)

	handler := api.NewHandler(recipes, users, feedStore, recommender, imagestore.New(cfg.ImageDir), imp)

	opts := api.RouteOptions{AdminEndpoints: cfg.AdminEndpoints, ImageDir: cfg.ImageDir}
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID})
		if err != nil {
			return fmt.Errorf("failed to initialize firebase: %w", err)
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize firebase auth: %w", err)
		}
		opts.Auth = api.FirebaseAuth(authClient)
	} else {
		logger.Warn("FIREBASE_PROJECT_ID not set, user-scoped routes are unauthenticated")
	}

	r := newRouter(cfg)
	handler.RegisterRoutes(r, opts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Import.Schedule != "" {
		c, err := importer.Schedule(gctx, imp, cfg.Import.Schedule)
		if err != nil {
			return err
		}
		defer func() { <-c.Stop().Done() }()
	}

	g.Go(func() error {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Import.OnStart {
		g.Go(func() error {
			stats, err := imp.Run(gctx, cfg.Import.Force)
			if err != nil {
				logger.Error("Startup import failed", "error", err)
				return nil
			}
			if stats.NotRun {
				logger.Info("Catalogue already populated, startup import skipped")
			}
			return nil
		})
	}

	return g.Wait()
}

func newRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), api.Recovery(), api.RequestMetrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	return r
}

// newCompleter returns the language model backing recommendations, or nil for score-only mode.
func newCompleter(ctx context.Context, cfg config.RecommendConfig) (recommend.Completer, func(), error) {
	switch cfg.Provider {
	case config.RecommenderOpenAI:
		return chatllm.NewClient(cfg.OpenAIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), func() {}, nil
	case config.RecommenderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating gemini client: %w", err)
		}
		return client, func() { client.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
