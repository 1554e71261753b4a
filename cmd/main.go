package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/e-podcast-content/config"
	"github.com/vnkhanh/e-podcast-content/controllers"
	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/routes"
	"github.com/vnkhanh/e-podcast-content/services"
	"github.com/vnkhanh/e-podcast-content/utils"
	"github.com/vnkhanh/e-podcast-content/ws"
)

func main() {
	// Load .env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewWithFile(cfg.Log.Mode, logger.FileOptions{
		Filename:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if envErr != nil {
		log.Info("Không tìm thấy file .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Kết nối database thất bại", "error", err)
	}

	gateway, err := services.NewGeminiGateway(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.RequestsPerMinute, log)
	if err != nil {
		log.Fatal("Khởi tạo Gemini thất bại", "error", err)
	}
	defer gateway.Close()

	var tiers []services.SpeechTier
	neural, err := services.NewGoogleTTSTier(ctx, services.NeuralTTSConfig{
		CredentialsFile: cfg.TTS.CredentialsFile,
		Voice:           cfg.TTS.Voice,
		Language:        cfg.TTS.Language,
		SpeakingRate:    cfg.TTS.SpeakingRate,
	}, log)
	if err != nil {
		log.Warn("Không khởi tạo được Google TTS, bỏ qua tầng neural", "error", err)
	} else {
		defer neural.Close()
		tiers = append(tiers, neural)
	}
	if cfg.TTS.VITSURL != "" {
		tiers = append(tiers, utils.NewVITSClient(cfg.TTS.VITSURL, nil))
	}
	speech := services.NewSpeechPipeline(log, tiers...)

	store, err := utils.NewAudioStore(cfg.Audio.Storage, cfg.Audio.Dir, cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket)
	if err != nil {
		log.Fatal("Cấu hình lưu trữ audio không hợp lệ", "error", err)
	}
	locator := utils.NewAudioLocator(utils.StoreChecker{Store: store})

	hub := ws.NewHub(log)
	source := services.NewSourceLoader(db, &http.Client{Timeout: time.Minute}, log)
	generator := services.NewGenerator(gateway, cfg.Generation.MaxAttempts, cfg.Generation.Backoff, log)
	contentSvc := services.NewContentService(source, services.NewArtifactStore(db, log), generator, hub, cfg.Generation.Timeout, log)
	podcastSvc := services.NewPodcastService(db, source, speech, store, locator, hub, cfg.Generation.Timeout, log)
	fileSvc := services.NewFileService(db, store, log)

	utils.NewAudioCleanupJob(db, store, cfg.Audio.CleanupInterval, cfg.Audio.OrphanGrace, log).Start(ctx)

	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	//Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	// Gọi SetupRouter để đăng ký route
	r = routes.SetupRouter(r, routes.Deps{
		DB:             db,
		Verifier:       utils.NewTokenVerifier(cfg.Auth.AccessTokenSecret),
		Hub:            hub,
		Content:        controllers.NewContentController(contentSvc, log),
		Podcast:        controllers.NewPodcastController(podcastSvc, fileSvc, log),
		Audio:          controllers.NewAudioController(store, log),
		AllowedOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server dừng bất thường", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown lỗi", "error", err)
	}
	log.Info("Server đã dừng")
}
