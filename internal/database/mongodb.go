package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ConnectWithRetry dials MongoDB up to attempts times with doubling backoff,
// starting at one second. Tolerates the startup race where the database
// container is still coming up.
func ConnectWithRetry(ctx context.Context, uri string, timeout time.Duration, attempts int) (*mongo.Client, error) {
	return connectWithRetry(ctx, attempts, time.Second, time.Sleep, func(ctx context.Context) (*mongo.Client, error) {
		return ConnectMongo(ctx, uri, timeout)
	})
}

func connectWithRetry(ctx context.Context, attempts int, backoff time.Duration, sleep func(time.Duration), dial func(context.Context) (*mongo.Client, error)) (*mongo.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := dial(ctx)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, attempts, err)
		if attempt < attempts {
			sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("mongo connect after %d attempts: %w", attempts, lastErr)
}
