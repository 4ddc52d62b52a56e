package main

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

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/truevault/tv-dvr/internal/api"
	"github.com/truevault/tv-dvr/internal/config"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/events"
	"github.com/truevault/tv-dvr/internal/metrics"
	"github.com/truevault/tv-dvr/internal/middleware"
	"github.com/truevault/tv-dvr/internal/quota"
	"github.com/truevault/tv-dvr/internal/recorder"
	"github.com/truevault/tv-dvr/internal/schedule"
	"github.com/truevault/tv-dvr/internal/shares"
	"github.com/truevault/tv-dvr/internal/supervisor"
	"github.com/truevault/tv-dvr/internal/tokens"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Config
	cfgMgr, err := config.NewManager(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	cfgMgr.StartWatcher(ctx)
	cfg := cfgMgr.Current()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Println("[WARN] JWT_SECRET not set, using dev default")
		cfg.JWTSecret = "dev-secret-do-not-use-in-prod"
	}

	for _, dir := range []string{cfg.Storage.ClipsDir, cfg.Storage.ThumbsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Storage dir %s: %v", dir, err)
		}
	}

	// 2. DB
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB open error: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("DB ping error: %v", err)
	}
	defer db.Close()

	// 3. Redis (process markers)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis ping error: %v", err)
	}
	defer rdb.Close()

	// 4. NATS (optional)
	var nc *nats.Conn
	var bus events.Publisher = events.NoopPublisher{}
	if cfg.NATSUrl != "" {
		nc, err = nats.Connect(cfg.NATSUrl,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			log.Printf("[WARN] NATS unavailable, events disabled: %v", err)
		} else {
			defer nc.Close()
			bus = events.NewNATSPublisher(nc, 3)
		}
	}

	// 5. Data models
	cameraModel := data.CameraModel{DB: db}
	recordingModel := data.RecordingModel{DB: db}
	motionModel := data.MotionModel{DB: db}
	scheduleModel := data.ScheduleModel{DB: db}
	shareModel := data.ShareModel{DB: db}

	// 6. Domain services
	collector := metrics.NewCollector()

	sup := supervisor.New(supervisor.Config{
		FFmpegPath:  cfg.Encoder.FFmpegPath,
		FFprobePath: cfg.Encoder.FFprobePath,
		GracePeriod: cfg.Encoder.GracePeriod,
	}, supervisor.NewRegistry(rdb))

	ledger := quota.NewLedger(recordingModel, cfg.Storage.MaxBytes)

	recSvc := recorder.NewService(
		cameraModel, recordingModel, shareModel,
		sup, ledger, bus, collector,
		cfg.Storage.ClipsDir, cfg.Storage.ThumbsDir,
	)
	sup.SetExitHandler(recSvc.HandleProcessExit)

	schedSvc := schedule.NewService(scheduleModel, cameraModel)
	evaluator := schedule.NewEvaluator(schedule.EvaluatorConfig{}, cameraModel, scheduleModel, recSvc)
	evaluator.Start()
	defer evaluator.Stop()

	correlator := schedule.NewCorrelator(schedule.CorrelatorConfig{
		Cooldown:       time.Duration(cfg.Motion.CooldownSeconds) * time.Second,
		RecordDuration: time.Duration(cfg.Motion.RecordSeconds) * time.Second,
	}, motionModel, cameraModel, recSvc, bus, collector)

	shareSvc := shares.NewService(shareModel, recordingModel, cfg.ShareBaseURL,
		time.Duration(cfg.ShareTTLHours)*time.Hour)

	tokenMgr := tokens.NewManager(cfg.JWTSecret)

	// 7. HTTP
	router := api.NewRouter(api.Handlers{
		Cameras:    api.NewCameraHandler(cameraModel, recSvc),
		Recordings: api.NewRecordingHandler(recSvc, shareSvc),
		Schedules:  api.NewScheduleHandler(schedSvc),
		Motion:     api.NewMotionHandler(correlator),
		SharedClip: api.NewSharedClipHandler(shareSvc, recSvc),
		Storage:    api.NewStorageHandler(ledger),
		EventsWS:   api.NewEventsWSHandler(tokenMgr, nc),
		Auth:       middleware.NewJWTAuth(tokenMgr),
		Collector:  collector,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // downloads can stream for a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[SERVER] listening on :%d (env=%s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[SERVER] shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[SERVER] shutdown error: %v", err)
	}
}
