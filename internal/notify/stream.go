package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/tangxiangong/weisheng/internal/models"
)

// StreamNotifier 将报表摘要发布到 Redis Streams
type StreamNotifier struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamNotifier 创建 Redis Streams 通知器
func NewStreamNotifier(client *redis.Client, stream string, logger *zap.Logger) *StreamNotifier {
	return &StreamNotifier{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (n *StreamNotifier) Name() string { return "redis-stream" }

// Notify XADDs {run_id, data (JSON summary), timestamp} to the stream.
func (n *StreamNotifier) Notify(ctx context.Context, summary models.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	id, err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"run_id":    summary.RunID,
			"data":      string(payload),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", n.stream, err)
	}

	n.logger.Info("Report summary published",
		zap.String("stream", n.stream),
		zap.String("message_id", id),
		zap.String("run_id", summary.RunID),
	)
	return nil
}
