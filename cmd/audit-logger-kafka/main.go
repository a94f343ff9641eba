package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/David-Orizu31/todolist/cmd/internal"
	internaldomain "github.com/David-Orizu31/todolist/internal"
	"github.com/David-Orizu31/todolist/internal/envvar"
)

func main() {
	var env string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.Parse()

	errC, err := run(env)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env string) (<-chan error, error) {
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

	consumer, err := internal.NewKafkaConsumer(conf, "audit-logger")
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewKafkaConsumer")
	}

	if _, err = internal.NewOTExporter(conf); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	srv := &Server{
		logger: logger,
		kafka:  consumer,
		doneC:  make(chan struct{}),
		closeC: make(chan struct{}),
	}

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)

		defer func() {
			_ = logger.Sync()
			_ = consumer.Consumer.Unsubscribe()
			stop()
			cancel()
			close(errC)
		}()

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving")

		if err := srv.ListenAndServe(); err != nil {
			errC <- err
		}
	}()

	return errC, nil
}

// Server consumes task lifecycle events from Kafka and writes one structured
// audit entry per message.
type Server struct {
	logger *zap.Logger
	kafka  *internal.KafkaConsumer
	doneC  chan struct{}
	closeC chan struct{}
	once   sync.Once
}

type event struct {
	Type  string
	Value internaldomain.Task
}

// ListenAndServe reads messages until Shutdown is called.
func (s *Server) ListenAndServe() error {
	commit := func() {
		if _, err := s.kafka.Consumer.Commit(); err != nil {
			s.logger.Warn("commit failed", zap.Error(err))
		}
	}

	go func() {
		defer close(s.doneC)

		for {
			select {
			case <-s.closeC:
				return
			default:
			}

			msg, err := s.kafka.Consumer.ReadMessage(time.Second)
			if err != nil {
				continue
			}

			var evt event
			if err := json.NewDecoder(bytes.NewReader(msg.Value)).Decode(&evt); err != nil {
				s.logger.Warn("undecodable message", zap.Error(err))
				commit()

				continue
			}

			switch evt.Type {
			case "tasks.event.created", "tasks.event.updated", "tasks.event.completed", "tasks.event.reopened":
				s.logger.Info("task event",
					zap.String("event", evt.Type),
					zap.String("id", evt.Value.ID),
					zap.String("owner", evt.Value.Owner),
					zap.Int8("priority", int8(evt.Value.Priority)),
					zap.Bool("completed", evt.Value.Completed),
				)
			case "tasks.event.deleted":
				s.logger.Info("task event",
					zap.String("event", evt.Type),
					zap.String("id", evt.Value.ID),
				)
			default:
				s.logger.Warn("unknown event type", zap.String("type", evt.Type))
			}

			commit()
		}
	}()

	return nil
}

// Shutdown stops the consumer loop and waits for it to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	s.once.Do(func() {
		close(s.closeC)
	})

	select {
	case <-ctx.Done():
		return internaldomain.WrapErrorf(ctx.Err(), internaldomain.ErrorCodeUnknown, "context.Done")
	case <-s.doneC:
		return nil
	}
}
