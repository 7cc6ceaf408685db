package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pos-order-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssigner struct {
	calls int
	err   error
}

func (f *fakeAssigner) AutoAssign(context.Context) (int, error) {
	f.calls++
	return 1, f.err
}

type fakeRestorer struct {
	calls atomic.Int32
}

func (f *fakeRestorer) Restore(context.Context) (int, error) {
	f.calls.Add(1)
	return 0, nil
}

func TestHandleUserCreatedRunsAutoAssign(t *testing.T) {
	assigner := &fakeAssigner{}
	w := &UserWorker{assigner: assigner}

	err := w.HandleUserCreated(context.Background(), &models.UserCreatedEvent{UserID: 3, Login: "cashier"})
	require.NoError(t, err)
	assert.Equal(t, 1, assigner.calls)
}

func TestHandleUserCreatedSwallowsFailures(t *testing.T) {
	w := &UserWorker{assigner: &fakeAssigner{err: errors.New("db down")}}

	err := w.HandleUserCreated(context.Background(), &models.UserCreatedEvent{UserID: 3})
	assert.NoError(t, err)
}

func TestPermissionWorkerRunsOnTicksUntilCancelled(t *testing.T) {
	restorer := &fakeRestorer{}
	w := NewPermissionWorker(restorer, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool { return restorer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("permission worker did not stop")
	}
}

func TestPermissionWorkerRejectsNonPositiveInterval(t *testing.T) {
	restorer := &fakeRestorer{}

	for _, interval := range []time.Duration{0, -time.Hour} {
		var err error
		assert.NotPanics(t, func() {
			err = NewPermissionWorker(restorer, interval).Start(context.Background())
		})
		assert.Error(t, err)
	}
	assert.Zero(t, restorer.calls.Load())
}
