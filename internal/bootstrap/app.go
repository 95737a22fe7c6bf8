package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeportal-backend/internal/applications"
	"tradeportal-backend/internal/clientaccess"
	"tradeportal-backend/internal/documents"
	"tradeportal-backend/internal/evaluations"
	"tradeportal-backend/internal/shared/config"
	"tradeportal-backend/internal/shared/server"
	"tradeportal-backend/internal/shared/storage/db"
	"tradeportal-backend/internal/shared/storage/object"
	localstore "tradeportal-backend/internal/shared/storage/object/local"
	s3store "tradeportal-backend/internal/shared/storage/object/s3"
	"tradeportal-backend/internal/shared/telemetry"
)

// App holds shared dependencies built from configuration.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	ApplicationsRepo    applications.Repo
	EvaluationsRepo     evaluations.Repo
	ApplicationsService *applications.Service
	DocumentsService    *documents.Service
	ClientAccessService *clientaccess.Service
	EvaluationsService  *evaluations.Service

	ApplicationsHandler *applications.Handler
	DocumentsHandler    *documents.Handler
	ClientAccessHandler *clientaccess.Handler
	EvaluationsHandler  *evaluations.Handler
}

// Build prepares all dependencies and the router. Without a DATABASE_URL in
// dev-like environments it falls back to in-memory repositories.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		ApplicationsHandler: app.ApplicationsHandler,
		DocumentsHandler:    app.DocumentsHandler,
		ClientAccessHandler: app.ClientAccessHandler,
		EvaluationsHandler:  app.EvaluationsHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "migrations failed", "error": err.Error()})
			sqlDB.Close()
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	var appRepo applications.Repo
	var evalRepo evaluations.Repo
	if app.DB != nil {
		appRepo = &applications.PGRepo{DB: app.DB}
		evalRepo = &evaluations.PGRepo{DB: app.DB}
	} else {
		appRepo = applications.NewMemoryRepo()
		evalRepo = evaluations.NewMemoryRepo()
	}

	issuer := clientaccess.NewIssuer()
	appsSvc := applications.NewService(appRepo, issuer, app.Config.FrontendURL)
	docSvc := documents.NewService(
		app.Store,
		appRepo,
		app.Config.MaxUploadBatch,
		app.Config.MaxFileSizeBytes,
		app.Config.AllowedMimeTypes,
		app.Config.DocumentTypes,
	)
	clientSvc := clientaccess.NewService(appRepo)
	evalSvc := evaluations.NewService(evalRepo, appsSvc)

	app.ApplicationsRepo = appRepo
	app.EvaluationsRepo = evalRepo
	app.ApplicationsService = appsSvc
	app.DocumentsService = docSvc
	app.ClientAccessService = clientSvc
	app.EvaluationsService = evalSvc
	app.ApplicationsHandler = applications.NewHandler(appsSvc, app.Store)
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ClientAccessHandler = clientaccess.NewHandler(clientSvc)
	app.EvaluationsHandler = evaluations.NewHandler(evalSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
