package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schooldocs/docs"
	"schooldocs/internal/cache"
	"schooldocs/internal/config"
	"schooldocs/internal/database"
	"schooldocs/internal/database/migration"
	handlers "schooldocs/internal/http/handler"
	"schooldocs/internal/http/middleware"
	"schooldocs/internal/logger"
	"schooldocs/internal/mergefield"
	"schooldocs/internal/metrics"
	"schooldocs/internal/otel"
	"schooldocs/internal/pdf"
	"schooldocs/internal/repository/postgres"
	"schooldocs/internal/service"
	"schooldocs/internal/storage"
	"schooldocs/internal/webhook"
)

// importBodyLimit caps multipart uploads of the student directory.
const importBodyLimit = 20 << 20

// @title School Documents API
// @version 1.0
// @BasePath /
func main() {
	cfg := config.Load()
	loc := cfg.Location()
	log := logger.Setup(logger.Options{Debug: cfg.LogDebug, Location: loc})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Error("tracing_init_failed", "error", err.Error())
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		fatal("failed to migrate database", err)
	}

	// Archiving is optional; dispatches still go out without it.
	var archive storage.Archive
	if storage.Enabled(cfg.MinIO) {
		archive, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			fatal("failed to initialize object storage", err)
		}
	} else {
		log.Warn("storage_disabled", "detail", "MINIO_ENDPOINT is empty, dispatched PDFs are not archived")
	}

	var studentCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			fatal("failed to connect to redis", err)
		}
		defer rc.Close()
		studentCache = rc
	}

	// Leave sender as a nil interface when the webhook is not configured.
	var sender webhook.Sender
	if client, err := webhook.NewClient(cfg.Webhook, log); err == nil {
		sender = client
	} else {
		log.Warn("webhook_disabled", "detail", err.Error())
	}

	pdfOpts, err := pdf.LoadLetterhead(cfg.LetterheadPath)
	if err != nil {
		fatal("failed to load letterhead", err)
	}
	catalog, err := mergefield.NewCatalog()
	if err != nil {
		fatal("failed to load templates", err)
	}
	dispatchMetrics, err := metrics.NewDispatch(prometheus.DefaultRegisterer)
	if err != nil {
		fatal("failed to register dispatch metrics", err)
	}

	studentRepo := postgres.NewStudentPostgres(db)
	svc := handlers.Services{
		Students: service.NewStudentService(studentRepo, studentCache, log),
		Documents: service.NewDocumentService(service.DocumentDeps{
			Catalog:           catalog,
			Merge:             mergefield.NewRenderer(loc),
			PDF:               pdf.NewRenderer(pdfOpts...),
			Students:          studentRepo,
			Dispatches:        postgres.NewDispatchPostgres(db),
			Archive:           archive,
			Sender:            sender,
			Metrics:           dispatchMetrics,
			Delay:             cfg.Dispatch.Delay(),
			Location:          loc,
			Log:               log,
			PreviewBackground: cfg.LetterheadURL,
		}),
		Relay: service.NewRelayService(sender, log),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    importBodyLimit,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		fatal("failed to register http metrics", err)
	}

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, svc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info("server_shutdown", "status", "draining")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server_shutdown_failed", "error", err.Error())
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_start", "addr", addr, "webhook_enabled", sender != nil, "storage_enabled", archive != nil)
	if err := app.Listen(addr); err != nil {
		fatal("failed to start server", err)
	}
}

func fatal(msg string, err error) {
	logger.L().Error(msg, "error", err.Error())
	os.Exit(1)
}
