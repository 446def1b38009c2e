package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"pdf2slides/internal/api"
	"pdf2slides/internal/auth"
	"pdf2slides/internal/builder"
	"pdf2slides/internal/config"
	"pdf2slides/internal/extract"
	"pdf2slides/internal/google"
	"pdf2slides/internal/logging"
	"pdf2slides/internal/store"
	"pdf2slides/internal/structuring"
	"pdf2slides/internal/uploads"
	"pdf2slides/internal/worker"
)

func main() {
	logger := logging.New(os.Stderr)

	cfg, err := config.Load(os.Getenv("PDF2SLIDES_CONFIG"))
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, closer, err := store.Open(cfg)
	if err != nil {
		logger.Fatalf("open job store: %v", err)
	}
	defer closer.Close()
	logger.WithField("driver", cfg.Store.Driver).Info("job store ready")
	store.StartCleaner(ctx, jobs, time.Duration(cfg.Store.CleanEvery)*time.Minute, logger)

	files, err := uploads.NewStore(cfg.BasicConfig.UploadDir, cfg.MaxUploadBytes())
	if err != nil {
		logger.Fatalf("init upload dir: %v", err)
	}
	files.StartCleaner(ctx,
		time.Duration(cfg.BasicConfig.TempFileTTL)*time.Minute,
		time.Duration(cfg.BasicConfig.TempCleanInterval)*time.Minute,
		logger)

	provider := cfg.BasicConfig.StructuringProvider
	chatModel, err := structuring.NewChatModel(ctx, provider, cfg.Providers[provider])
	if err != nil {
		logger.Fatalf("init %s model: %v", provider, err)
	}

	clients, err := google.NewClients(ctx, cfg.Google.CredentialsFile)
	if err != nil {
		logger.Fatalf("init google clients: %v", err)
	}

	mutations := worker.NewManager(worker.Config{
		QueueSize:   cfg.Worker.QueueSize,
		IdleTimeout: time.Duration(cfg.Worker.IdleTimeoutSeconds) * time.Second,
	}, logger)
	defer mutations.Close()

	handlers := api.NewHandler(api.Deps{
		Extractor:  extract.NewExtractor(),
		Structurer: structuring.NewService(chatModel, logger),
		Builder: builder.New(clients.Drive, clients.Slides, mutations, builder.Options{
			TemplateName: cfg.Google.TemplateName,
			CopyName:     cfg.Google.CopyName,
		}, logger),
		Jobs:          jobs,
		Files:         files,
		Auth:          auth.NewService(cfg.BasicConfig.APIKey),
		Logger:        logger,
		RemoteTimeout: time.Duration(cfg.BasicConfig.RemoteCallTimeoutSeconds) * time.Second,
	})

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes()
	handlers.RegisterRoutes(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.BasicConfig.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
	})

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("shutdown")
		}
	}()

	logger.WithField("addr", srv.Addr).Info("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server stopped: %v", err)
	}
}
