package outbox

import (
	"context"
	"fmt"

	"cr-go/internal/config"
	"cr-go/internal/cr"
)

// NewOutboxFromConfig creates an Outbox implementation based on the outbox config type.
func NewOutboxFromConfig(ctx context.Context, cfg config.OutboxConfig) (cr.Outbox, error) {
	switch cfg.Type {
	case config.OutboxMemory:
		return NewMemoryOutbox(), nil
	case config.OutboxS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 outbox requires s3_bucket to be set")
		}
		return NewS3Outbox(ctx, cfg)
	case config.OutboxFilesystem:
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem outbox requires fs_root to be set")
		}
		return NewFileSystemOutbox(cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown outbox type: %s", cfg.Type)
	}
}
