package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpadapter "github.com/PabloGalante/farum-wellness/internal/adapters/http"
	firestorestore "github.com/PabloGalante/farum-wellness/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/farum-wellness/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-wellness/internal/adapters/storage/sqlstore"
	"github.com/PabloGalante/farum-wellness/internal/app/achievements"
	"github.com/PabloGalante/farum-wellness/internal/app/conversation"
	journalapp "github.com/PabloGalante/farum-wellness/internal/app/journal"
	"github.com/PabloGalante/farum-wellness/internal/config"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// stores groups the ports one backend provides.
type stores struct {
	sessions domain.SessionStore
	messages domain.MessageStore
	journal  domain.JournalStore
	activity domain.ActivityStore
	badges   domain.BadgeStore
	closer   io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("error initializing logger: %v", err)
	}
	observability.SetLogger(logger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, "farum-api")
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(shutdownCtx)
			}()
		}
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("error initializing storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	if st.closer != nil {
		defer st.closer.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	evaluator := achievements.NewEvaluator(st.activity, st.badges, metrics)

	if cfg.AchievementSweepInterval > 0 {
		sweeper, err := achievements.NewSweeper(evaluator, st.activity, cfg.AchievementSweepInterval, cfg.AchievementSweepWindow)
		if err != nil {
			logger.Error("error initializing achievement sweeper", "error", err)
			os.Exit(1)
		}
		if err := sweeper.Start(); err != nil {
			logger.Error("error starting achievement sweeper", "error", err)
			os.Exit(1)
		}
		defer sweeper.Stop()
	}

	convSvc := conversation.NewService(st.sessions, st.messages, nil, nil,
		conversation.WithEmitter(conversation.EmitterFunc(func(ctx context.Context, msg *domain.Message) {
			logger.Info("bot message", "session_id", msg.SessionID, "message_id", msg.ID)
		})),
		conversation.WithMetrics(metrics),
		conversation.WithAchievements(evaluator),
		conversation.WithFollowUpDelay(cfg.FollowUpDelay),
		conversation.WithSessionTTL(cfg.SessionIdleTTL),
	)
	defer convSvc.Close()

	journalSvc := journalapp.NewService(st.journal, evaluator)

	if cfg.Mode == config.ModeGCP {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := httpadapter.NewServer(httpadapter.Services{
		Conversation: convSvc,
		Journal:      journalSvc,
		Achievements: evaluator,
		Badges:       st.badges,
		Metrics:      reg,
		AllowOrigins: cfg.AllowOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Farum API listening", "port", cfg.Port, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *observability.ZapLogger) (*stores, error) {
	switch cfg.StorageBackend {
	case config.StorageFirestore:
		logger.Info("using Firestore storage", "project", cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, err
		}
		return &stores{sessions: fs, messages: fs, journal: fs, activity: fs, badges: fs, closer: fs}, nil

	case config.StorageSQL:
		logger.Info("using SQL storage", "driver", cfg.SQLDriver)
		db, err := sqlstore.Open(cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			return nil, err
		}
		return &stores{sessions: db, messages: db, journal: db, activity: db, badges: db, closer: db}, nil

	default:
		logger.Info("using in-memory storage")
		messages := memstore.NewMessageStore()
		journal := memstore.NewJournalStore()
		return &stores{
			sessions: memstore.NewSessionStore(),
			messages: messages,
			journal:  journal,
			activity: memstore.NewActivityStore(messages, journal),
			badges:   memstore.NewBadgeStore(),
		}, nil
	}
}
