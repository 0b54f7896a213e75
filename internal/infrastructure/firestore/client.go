package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/fastygo/tasktrail/internal/config"
)

// NewClient opens a Firestore client. FIRESTORE_EMULATOR_HOST is honoured by
// the SDK itself.
func NewClient(ctx context.Context, cfg config.FirestoreConfig, logger *zap.Logger) (*firestore.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	logger.Info("connected to firestore", zap.String("project", cfg.ProjectID))
	return client, nil
}

// Ping performs a cheap read to confirm the backend is reachable.
func Ping(ctx context.Context, client *firestore.Client) error {
	iter := client.Collections(ctx)
	_, err := iter.Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}
