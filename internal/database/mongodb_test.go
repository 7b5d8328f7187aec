package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectWithRetrySucceedsAfterFailures(t *testing.T) {
	var slept []time.Duration
	calls := 0
	dial := func(ctx context.Context) (*mongo.Client, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return &mongo.Client{}, nil
	}

	client, err := connectWithRetry(context.Background(), 5, time.Second,
		func(d time.Duration) { slept = append(slept, d) }, dial)
	require.NoError(t, err)
	require.NotNil(t, client)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestConnectWithRetryGivesUp(t *testing.T) {
	calls := 0
	dial := func(ctx context.Context) (*mongo.Client, error) {
		calls++
		return nil, errors.New("connection refused")
	}

	_, err := connectWithRetry(context.Background(), 3, time.Second,
		func(time.Duration) {}, dial)
	require.Error(t, err)
	require.Equal(t, 3, calls)
	require.Contains(t, err.Error(), "after 3 attempts")
}
