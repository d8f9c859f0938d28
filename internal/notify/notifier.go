package notify

import (
	"context"

	"github.com/tangxiangong/weisheng/internal/models"
)

// Notifier announces a finished report run.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, summary models.RunSummary) error
}
