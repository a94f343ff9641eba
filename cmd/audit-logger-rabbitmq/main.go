package main

import (
	"bytes"
	"context"
	"encoding/gob"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/David-Orizu31/todolist/cmd/internal"
	internaldomain "github.com/David-Orizu31/todolist/internal"
	"github.com/David-Orizu31/todolist/internal/envvar"
)

const rabbitMQConsumerName = "audit-logger"

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

	rmq, err := internal.NewRabbitMQ(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewRabbitMQ")
	}

	if _, err = internal.NewOTExporter(conf); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	srv := &Server{
		logger: logger,
		rmq:    rmq,
		done:   make(chan struct{}),
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
			rmq.Close()
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

// Server consumes task lifecycle events and writes one structured audit
// entry per message.
type Server struct {
	logger *zap.Logger
	rmq    *internal.RabbitMQ
	done   chan struct{}
}

// ListenAndServe binds an exclusive queue to the tasks exchange and consumes
// events until the channel is cancelled.
func (s *Server) ListenAndServe() error {
	queue, err := s.rmq.Channel.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.QueueDeclare")
	}

	err = s.rmq.Channel.QueueBind(
		queue.Name,      // queue name
		"tasks.event.*", // routing key
		"tasks",         // exchange
		false,
		nil,
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.QueueBind")
	}

	msgs, err := s.rmq.Channel.Consume(
		queue.Name,           // queue
		rabbitMQConsumerName, // consumer
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.Consume")
	}

	go func() {
		for msg := range msgs {
			var nack bool

			switch msg.RoutingKey {
			case "tasks.event.created", "tasks.event.updated", "tasks.event.completed", "tasks.event.reopened":
				task, err := decodeTask(msg.Body)
				if err != nil {
					nack = true
					break
				}

				s.logger.Info("task event",
					zap.String("event", msg.RoutingKey),
					zap.String("id", task.ID),
					zap.String("owner", task.Owner),
					zap.Int8("priority", int8(task.Priority)),
					zap.Bool("completed", task.Completed),
				)
			case "tasks.event.deleted":
				id, err := decodeID(msg.Body)
				if err != nil {
					nack = true
					break
				}

				s.logger.Info("task event",
					zap.String("event", msg.RoutingKey),
					zap.String("id", id),
				)
			default:
				nack = true
			}

			if nack {
				_ = msg.Nack(false, false)
			} else {
				_ = msg.Ack(false)
			}
		}

		s.logger.Info("No more messages to consume, exiting")
		s.done <- struct{}{}
	}()

	return nil
}

// Shutdown cancels the consumer and waits for in-flight messages.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	_ = s.rmq.Channel.Cancel(rabbitMQConsumerName, false)

	for {
		select {
		case <-ctx.Done():
			return internaldomain.WrapErrorf(ctx.Err(), internaldomain.ErrorCodeUnknown, "context.Done")
		case <-s.done:
			return nil
		}
	}
}

func decodeTask(b []byte) (internaldomain.Task, error) {
	var res internaldomain.Task

	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&res); err != nil {
		return internaldomain.Task{}, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "gob.Decode")
	}

	return res, nil
}

func decodeID(b []byte) (string, error) {
	var res string

	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&res); err != nil {
		return "", internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "gob.Decode")
	}

	return res, nil
}
