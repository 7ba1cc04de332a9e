package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSessionSweeper_Sweep(t *testing.T) {
	logger, hook := test.NewNullLogger()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	repo := new(MockSessionRepository)
	repo.On("DeleteExpired", mock.Anything, now).Return(int64(3), nil).Once()
	repo.On("DeleteExpired", mock.Anything, now).Return(int64(0), errors.New("lock wait timeout")).Once()

	sweeper := NewSessionSweeper(repo, time.Minute, logger)
	sweeper.now = func() time.Time { return now }

	assert.Equal(t, int64(3), sweeper.Sweep(context.Background()))
	assert.Equal(t, int64(0), sweeper.Sweep(context.Background()))
	assert.Len(t, hook.AllEntries(), 2)
	repo.AssertExpectations(t)
}

func TestSessionSweeper_RunStopsWithContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	repo := new(MockSessionRepository)
	repo.On("DeleteExpired", mock.Anything, mock.Anything).Return(int64(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSessionSweeper(repo, time.Hour, logger).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
