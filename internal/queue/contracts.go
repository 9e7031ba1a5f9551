package queue

import (
	"context"

	"github.com/pkovar/news-sentiment-back/internal/domain"
)

// Producer sends async rating jobs to a queue backend.
type Producer interface {
	Enqueue(ctx context.Context, message domain.QueueMessage) error
}

// Consumer receives async rating jobs and executes handlers.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, domain.QueueMessage) error) error
}
