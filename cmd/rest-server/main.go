package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/David-Orizu31/todolist/cmd/internal"
	internaldomain "github.com/David-Orizu31/todolist/internal"
	"github.com/David-Orizu31/todolist/internal/envvar"
	"github.com/David-Orizu31/todolist/internal/kafka"
	"github.com/David-Orizu31/todolist/internal/memcached"
	"github.com/David-Orizu31/todolist/internal/postgresql"
	"github.com/David-Orizu31/todolist/internal/rabbitmq"
	"github.com/David-Orizu31/todolist/internal/redis"
	"github.com/David-Orizu31/todolist/internal/rest"
	"github.com/David-Orizu31/todolist/internal/service"
)

func main() {
	var env, address string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.StringVar(&address, "address", ":9234", "HTTP Server Address")
	flag.Parse()

	errC, err := run(env, address)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env, address string) (<-chan error, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "zap.NewProduction")
	}

	if err := envvar.Load(env); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "envvar.Load")
	}

	vault, err := internal.NewVaultProvider()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewVaultProvider")
	}

	conf := envvar.New(vault)

	pool, err := internal.NewPostgreSQL(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewPostgreSQL")
	}

	msgBroker, closeBroker, err := newMsgBroker(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "newMsgBroker")
	}

	promExporter, err := internal.NewOTExporter(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	store, err := newTaskStore(conf, pool, logger)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "newTaskStore")
	}

	logging := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info(r.Method,
				zap.Time("time", time.Now()),
				zap.String("url", r.URL.String()),
			)

			h.ServeHTTP(w, r)
		})
	}

	srv, err := newServer(serverConfig{
		Address:     address,
		Store:       store,
		MsgBroker:   msgBroker,
		Metrics:     promExporter,
		Middlewares: []func(next http.Handler) http.Handler{otelchi.Middleware("tasks-rest-server"), logging},
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("newServer %w", err)
	}

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		defer func() {
			_ = logger.Sync()
			pool.Close()
			closeBroker()
			stop()
			cancel()
			close(errC)
		}()

		srv.SetKeepAlivesEnabled(false)

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving", zap.String("address", address))

		// "ListenAndServe always returns a non-nil error. After Shutdown or
		// Close, the returned error is ErrServerClosed."
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errC <- err
		}
	}()

	return errC, nil
}

// newMsgBroker instantiates the lifecycle event publisher selected by
// BROKER_BACKEND, defaulting to Kafka.
func newMsgBroker(conf *envvar.Configuration) (service.TaskMessageBrokerRepository, func(), error) {
	backend, err := conf.Get("BROKER_BACKEND")
	if err != nil {
		return nil, nil, fmt.Errorf("conf.Get BROKER_BACKEND %w", err)
	}

	switch backend {
	case "rabbitmq":
		rmq, err := internal.NewRabbitMQ(conf)
		if err != nil {
			return nil, nil, fmt.Errorf("internal.NewRabbitMQ %w", err)
		}

		return rabbitmq.NewTask(rmq.Channel), rmq.Close, nil
	case "kafka", "":
		producer, err := internal.NewKafkaProducer(conf)
		if err != nil {
			return nil, nil, fmt.Errorf("internal.NewKafkaProducer %w", err)
		}

		return kafka.NewTask(producer.Producer, producer.Topic), producer.Producer.Close, nil
	}

	return nil, nil, fmt.Errorf("unsupported broker backend %q", backend)
}

// newTaskStore wraps the PostgreSQL repository with the cache backend
// selected by CACHE_BACKEND, defaulting to memcached.
func newTaskStore(conf *envvar.Configuration, pool *pgxpool.Pool, logger *zap.Logger) (service.TaskStore, error) {
	repo := postgresql.NewTask(pool)

	backend, err := conf.Get("CACHE_BACKEND")
	if err != nil {
		return nil, fmt.Errorf("conf.Get CACHE_BACKEND %w", err)
	}

	switch backend {
	case "redis":
		rdb, err := internal.NewRedis(conf)
		if err != nil {
			return nil, fmt.Errorf("internal.NewRedis %w", err)
		}

		return redis.NewTask(rdb, repo, logger), nil
	case "memcached", "":
		client, err := internal.NewMemcached(conf)
		if err != nil {
			return nil, fmt.Errorf("internal.NewMemcached %w", err)
		}

		return memcached.NewTask(client, repo, logger), nil
	}

	return nil, fmt.Errorf("unsupported cache backend %q", backend)
}

type serverConfig struct {
	Address     string
	Store       service.TaskStore
	MsgBroker   service.TaskMessageBrokerRepository
	Metrics     http.Handler
	Middlewares []func(next http.Handler) http.Handler
	Logger      *zap.Logger
}

func newServer(conf serverConfig) (*http.Server, error) {
	router := chi.NewRouter()
	router.Use(render.SetContentType(render.ContentTypeJSON))

	for _, mw := range conf.Middlewares {
		router.Use(mw)
	}

	svc := service.NewTask(conf.Logger, conf.Store, conf.MsgBroker)

	rest.NewTaskHandler(svc).Register(router)

	router.Handle("/metrics", conf.Metrics)

	lmt := tollbooth.NewLimiter(3, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Second})
	lmtmw := tollbooth.LimitHandler(lmt, router)

	return &http.Server{
		Handler:           lmtmw,
		Addr:              conf.Address,
		ReadTimeout:       1 * time.Second,
		ReadHeaderTimeout: 1 * time.Second,
		WriteTimeout:      1 * time.Second,
		IdleTimeout:       1 * time.Second,
	}, nil
}
