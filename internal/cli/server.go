package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"lpk-quiz-service/internal/app"
	"lpk-quiz-service/internal/certificate"
	"lpk-quiz-service/internal/config"
	"lpk-quiz-service/internal/infra/memory"
	"lpk-quiz-service/internal/infra/minio"
	"lpk-quiz-service/internal/infra/postgres"
	"lpk-quiz-service/internal/infra/rabbitmq"
	redisinfra "lpk-quiz-service/internal/infra/redis"
	"lpk-quiz-service/internal/ledger"
	transport "lpk-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	handler, cleanup, err := buildHandler(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildHandler wires the service graph. Postgres, Redis, MinIO and RabbitMQ
// are each optional; without them the in-memory adapters take over.
func buildHandler(ctx context.Context, cfg config.Config) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	var (
		loader    memory.QuizLoader
		questions app.QuestionStore
		work      interface {
			app.UnitOfWork
			ledger.Transactor
			Ledger() ledger.Store
		}
		certStore certificate.Store
	)

	if cfg.Postgres.URL != "" {
		db, err := openBun(cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { db.Close() })
		if err := migrateDB(ctx, db); err != nil {
			return fail(err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pool.Close)

		loader = postgres.NewQuizLoader(pool)
		questions = postgres.NewQuestionStore(pool)
		work = postgres.NewStore(db)
		certStore = postgres.NewCertificateStore(db)
	} else {
		log.Println("postgres url is empty, using in-memory storage with sample content")
		content := sampleContent()
		loader = content
		questions = content
		work = memory.NewStore()
		certStore = memory.NewCertificateStore()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { redisClient.Close() })
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, time.Minute)
	var quizRepo app.QuizRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
		sessions = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		sessions = memory.NewSessionStore()
	}

	var artifacts certificate.ArtifactStore
	if cfg.MinIO.Endpoint != "" {
		store, err := minio.NewArtifactStore(ctx, minio.Options{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKeyID,
			SecretAccessKey: cfg.MinIO.SecretAccessKey,
			UseSSL:          cfg.MinIO.UseSSL,
			Region:          cfg.MinIO.Region,
			Bucket:          cfg.MinIO.Bucket,
			PublicURL:       cfg.MinIO.PublicURL,
		})
		if err != nil {
			return fail(err)
		}
		artifacts = store
	} else {
		log.Println("minio endpoint is empty, certificates are kept in memory")
		artifacts = memory.NewArtifactStore("")
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { publisher.Close() })

	levels, err := ledger.NewLevels(cfg.Points.LevelThresholds)
	if err != nil {
		return fail(err)
	}
	points := ledger.NewService(work.Ledger(), work, levels)

	issuer := certificate.NewIssuer(
		certStore,
		certificate.NewPDFRenderer(artifacts, cfg.Certificate.Issuer),
		config.TTLDuration(cfg.Certificate.RenderTimeout, 10*time.Second),
	)

	hub := app.NewNotificationHub()
	quizzes := app.NewQuizService(app.Deps{
		Quizzes:      quizRepo,
		Questions:    questions,
		Sessions:     sessions,
		Work:         work,
		Ledger:       points,
		Certificates: issuer,
		Events:       publisher,
		Notifier:     hub,
		StartGrace:   config.TTLDuration(cfg.Quiz.StartGrace, 5*time.Minute),
	})
	profiles := app.NewProfileService(points, issuer)

	if cfg.Auth.JWTSecret == "" {
		log.Println("warning: jwt secret is empty, every token will be rejected")
	}
	auth := transport.NewAuthenticator(cfg.Auth.JWTSecret)
	router := transport.NewRouter(
		transport.NewQuizHandler(quizzes, profiles),
		transport.NewWSHandler(hub, auth),
		auth,
	)
	return router, cleanup, nil
}
