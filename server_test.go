package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeUntilDoneStopsCleanly(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)

	err := serveUntilDone(ctx, func() error {
		<-block

		return nil
	})
	require.NoError(t, err)
}

func TestServeUntilDoneReportsStartFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("address already in use")

	err := serveUntilDone(context.Background(), func() error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
