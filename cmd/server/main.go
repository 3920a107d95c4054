package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"briefbase/internal/blob"
	"briefbase/internal/config"
	"briefbase/internal/database"
	"briefbase/internal/handlers"
	"briefbase/internal/jobs"
	"briefbase/internal/llm"
	"briefbase/internal/logging"
	"briefbase/internal/middleware"
	"briefbase/internal/services"
	"briefbase/internal/worker"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting BriefBase Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Workers: %d)", cfg.Port, cfg.WorkerCount)

	// Connect to MongoDB
	log.Println("🔗 Connecting to MongoDB...")
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())

	if err := mongoDB.Initialize(context.Background()); err != nil {
		log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
	}
	log.Println("✅ MongoDB connected and indexes ensured")

	// Queue + compression lock (Redis-backed when REDIS_URL is set)
	queueService, err := services.NewQueueService(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to initialize queue: %v", err)
	}
	defer queueService.Close()

	// Blob storage
	blobStore, err := blob.NewLocalStore(cfg.BlobDir)
	if err != nil {
		log.Fatalf("❌ Failed to initialize blob storage: %v", err)
	}
	log.Printf("✅ Blob storage ready at %s", cfg.BlobDir)

	// Provider configuration (hot-reloadable)
	providers, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		log.Fatalf("❌ Failed to load providers config: %v", err)
	}
	registry := config.NewProviderRegistry(providers)
	log.Printf("✅ Providers loaded (endpoint: %s, summary model: %s)", providers.BaseURL, providers.SummaryModel)

	// LLM client with a shared outbound rate limit
	llmClient := &llm.Client{
		BaseURL: providers.BaseURL,
		APIKey:  cfg.LLMAPIKey,
		Limiter: rate.NewLimiter(rate.Limit(float64(cfg.LLMRequestsPerMinute)/60.0), cfg.LLMRequestsPerMinute),
	}
	intentClassifier := &llm.IntentClassifier{
		Client: llmClient,
		Model:  providers.IntentModel,
	}

	// Prometheus metrics
	metrics := services.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	// Stores
	projectStore := services.NewProjectStore(mongoDB)
	documentStore := services.NewDocumentStore(mongoDB)
	summaryStore := services.NewSummaryStore(mongoDB)
	runStore := services.NewRunStore(mongoDB)
	templateStore := services.NewTemplateStore(mongoDB)
	personStore := services.NewPersonStore(mongoDB)
	usageStore := services.NewUsageStore(mongoDB)
	activityService := services.NewActivityService(mongoDB)

	// Seed the system prompt templates once
	if err := templateStore.SeedSystemTemplates(context.Background()); err != nil {
		log.Fatalf("❌ Failed to seed prompt templates: %v", err)
	}

	templateResolver := services.NewTemplateResolver(templateStore)

	// Pipeline + compression
	pipelineService := services.NewPipelineService(
		documentStore, summaryStore, runStore, projectStore,
		blobStore, llmClient, intentClassifier, templateResolver,
		personStore, usageStore, activityService, queueService,
		registry, metrics, cfg,
	)
	compressService, err := services.NewCompressService(
		summaryStore, documentStore, projectStore, queueService,
		llmClient, templateResolver, usageStore, activityService,
		registry, metrics, cfg,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize compression service: %v", err)
	}

	// Worker pool draining the pipeline queue
	workerPool := worker.NewPool(queueService, pipelineService, cfg.WorkerCount)
	workerPool.Start(context.Background())

	// Background jobs
	jobScheduler := jobs.NewJobScheduler()
	jobScheduler.Register("stall-checker", jobs.NewStallChecker(
		runStore, activityService, metrics,
		cfg.StallThreshold, 5*time.Minute,
	))
	if err := jobScheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start job scheduler: %v", err)
	}

	// Hot-reload providers.json on change
	go startProvidersFileWatcher(cfg.ProvidersFile, registry)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "BriefBase v1.0",
		ReadTimeout:  5 * time.Minute,  // compression calls are synchronous and slow
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  5 * time.Minute,
		BodyLimit:    52 * 1024 * 1024, // 50MB documents plus multipart overhead
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("briefbase")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Rate limiting
	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))
	uploadLimiter := middleware.UploadRateLimiter(rateLimitConfig)
	compressLimiter := middleware.CompressRateLimiter(rateLimitConfig)
	log.Printf("🛡️  [RATE-LIMIT] Global=%d/min, Upload=%d/min, Compress=%d/min",
		rateLimitConfig.GlobalAPIMax, rateLimitConfig.UploadMax, rateLimitConfig.CompressMax)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(mongoDB)
	projectHandler := handlers.NewProjectHandler(projectStore, activityService, usageStore)
	documentHandler := handlers.NewDocumentHandler(
		documentStore, summaryStore, runStore, projectStore,
		personStore, blobStore, pipelineService, activityService,
	)
	knowledgeHandler := handlers.NewKnowledgeHandler(projectStore, compressService)
	peopleHandler := handlers.NewPeopleHandler(personStore, projectStore)
	templateHandler := handlers.NewTemplateHandler(templateStore, templateResolver)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")

	api.Post("/projects", projectHandler.Create)
	api.Get("/projects", projectHandler.List)
	api.Get("/projects/:id", projectHandler.Get)
	api.Get("/projects/:id/activity", projectHandler.Activity)
	api.Get("/projects/:id/usage", projectHandler.Usage)

	api.Post("/projects/:id/documents", uploadLimiter, documentHandler.Upload)
	api.Get("/projects/:id/documents", documentHandler.List)
	api.Post("/projects/:id/ingest", uploadLimiter, documentHandler.Ingest)
	api.Get("/projects/:id/processing-status", documentHandler.Status)

	api.Get("/documents/:id/summary", documentHandler.GetSummary)
	api.Patch("/documents/:id/content-date", documentHandler.SetContentDate)
	api.Post("/documents/:id/reprocess", documentHandler.Reprocess)
	api.Delete("/documents/:id", documentHandler.Delete)

	api.Get("/projects/:id/knowledge-base", knowledgeHandler.Get)
	api.Post("/projects/:id/knowledge-base/compress", compressLimiter, knowledgeHandler.Compress)

	api.Post("/projects/:id/people", peopleHandler.Add)
	api.Get("/projects/:id/people", peopleHandler.Roster)

	api.Get("/templates", templateHandler.List)
	api.Put("/templates/:id", templateHandler.Update)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}

		jobScheduler.Stop()
		workerPool.Stop()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// startProvidersFileWatcher watches providers.json for changes and hot-swaps
// the active provider config
func startProvidersFileWatcher(filePath string, registry *config.ProviderRegistry) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", filePath, err)
		watcher.Close()
		return
	}

	// Watch the directory containing the file (more reliable than watching the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		watcher.Close()
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", filePath)

	// Debounce timer to avoid multiple reloads for rapid file changes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}

				debounceTimer = time.AfterFunc(debounceDuration, func() {
					log.Printf("🔄 Detected changes in %s, reloading providers...", filePath)

					providers, err := config.LoadProviders(filePath)
					if err != nil {
						log.Printf("❌ Failed to reload providers after file change: %v", err)
						return
					}
					registry.Swap(providers)
					log.Printf("✅ Providers reloaded (endpoint: %s, summary model: %s)",
						providers.BaseURL, providers.SummaryModel)
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}
