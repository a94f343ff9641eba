package kafka

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"

	"github.com/David-Orizu31/todolist/internal"
)

const otelName = "github.com/David-Orizu31/todolist/internal/kafka"

// Task represents the repository used for publishing Task lifecycle events.
type Task struct {
	producer  *kafka.Producer
	topicName string
}

type event struct {
	Type  string
	Value internal.Task
}

// NewTask instantiates the Task repository.
func NewTask(producer *kafka.Producer, topicName string) *Task {
	return &Task{
		producer:  producer,
		topicName: topicName,
	}
}

// Created publishes a message indicating a task was created.
func (t *Task) Created(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Created", "tasks.event.created", task)
}

// Completed publishes a message indicating a task was marked as done.
func (t *Task) Completed(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Completed", "tasks.event.completed", task)
}

// Reopened publishes a message indicating a task was marked as pending again.
func (t *Task) Reopened(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Reopened", "tasks.event.reopened", task)
}

// Updated publishes a message indicating a task was updated.
func (t *Task) Updated(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Updated", "tasks.event.updated", task)
}

// Deleted publishes a message indicating a task was deleted.
func (t *Task) Deleted(ctx context.Context, id string) error {
	return t.publish(ctx, "Task.Deleted", "tasks.event.deleted", internal.Task{ID: id})
}

func (t *Task) publish(ctx context.Context, spanName, msgType string, task internal.Task) error {
	_, span := otel.Tracer(otelName).Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.KeyValue{
			Key:   semconv.MessagingSystemKey,
			Value: attribute.StringValue("kafka"),
		},
	)

	var b bytes.Buffer

	evt := event{
		Type:  msgType,
		Value: task,
	}

	if err := json.NewEncoder(&b).Encode(evt); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Encode")
	}

	if err := t.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &t.topicName,
			Partition: kafka.PartitionAny,
		},
		Value: b.Bytes(),
	}, nil); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "producer.Produce")
	}

	return nil
}
