package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finsight-ai/finsight/internal/api/handlers"
	"github.com/finsight-ai/finsight/internal/config"
	"github.com/finsight-ai/finsight/internal/database"
	"github.com/finsight-ai/finsight/internal/jobs"
	"github.com/finsight-ai/finsight/internal/knowledge"
	"github.com/finsight-ai/finsight/internal/openai"
	"github.com/finsight-ai/finsight/internal/retrieval"
	"github.com/finsight-ai/finsight/internal/router"
	"github.com/finsight-ai/finsight/internal/server"
	"github.com/finsight-ai/finsight/internal/storage"
	"github.com/finsight-ai/finsight/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the finsight question-answering server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("FINSIGHT_OPENAI_API_KEY is required: the fallback tier cannot answer without a generation model")
	}

	store := knowledge.NewStore()
	manager := knowledge.NewManager(store, cfg.KnowledgeFile, cfg.BackupDir)

	if _, err := os.Stat(cfg.KnowledgeFile); err == nil {
		if err := manager.Load(ctx); err != nil {
			return fmt.Errorf("failed to load knowledge file: %w", err)
		}
		log.Printf("loaded %d curated entries from %s", store.Len(), cfg.KnowledgeFile)
	} else {
		log.Printf("knowledge file %s not found, starting with an empty knowledge base", cfg.KnowledgeFile)
	}

	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready for off-site backups", cfg.S3Bucket)
		manager.WithBackupUploader(s3Client)
	}

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: cfg.EmbeddingModel,
	})
	generator := openai.NewGeneratorWithConfig(openai.GeneratorConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.GenerationModel,
		Temperature: float32(cfg.Temperature),
	})

	var pool *pgxpool.Pool
	var searcher *retrieval.VectorSearcher
	var indexWorker *jobs.Worker
	if cfg.DatabaseURL != "" {
		pool, err = database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Println("connected to database")

		// Run migrations unless --no-migrate flag is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		searcher = retrieval.NewVectorSearcher(pool, embedder)

		indexer := retrieval.NewIndexer(pool, embedder, store)
		indexWorker = jobs.NewWorker(indexer, 10*time.Second)
		go indexWorker.Start(ctx)
		log.Println("index worker started")
	} else {
		log.Println("FINSIGHT_DATABASE_URL not set: curated and grounded tiers disabled, all answers use the fallback tier")
	}

	routerCfg := router.Config{
		Generator:        generator,
		CuratedThreshold: cfg.CuratedThreshold,
	}
	if searcher != nil {
		routerCfg.Retriever = searcher
	}
	tierRouter, err := router.New(routerCfg)
	if err != nil {
		return fmt.Errorf("failed to build tier router: %w", err)
	}

	var pinger handlers.Pinger
	if pool != nil {
		pinger = pool
	}

	srvRouter := server.NewRouter(server.RouterConfig{
		APIKey:        cfg.APIKey,
		AskHandler:    handlers.NewAskHandler(tierRouter),
		KBHandler:     handlers.NewKBHandler(manager),
		HealthHandler: handlers.NewHealthHandler(store, pinger),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srvRouter,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if indexWorker != nil {
		indexWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate needs database/sql, not pgx pools
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
