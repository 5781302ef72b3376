package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatusLedger_FailedNotifiesAndIgnoresNotifierErrors(t *testing.T) {
	queue := new(MockQueueRepo)
	broken := new(MockNotifier)
	ok := new(MockNotifier)
	ledger := usecase.NewStatusLedger(queue, broken, ok)

	queue.On("MarkFailed", mock.Anything, int64(1), "drive download failed: 404 not found").Return(nil)
	broken.On("Notify", mock.Anything, mock.Anything).Return(errors.New("topic gone"))
	ok.On("Notify", mock.Anything, mock.MatchedBy(func(e model.QueueEvent) bool {
		return e.Status == model.QueueStatusFailed && *e.ErrorMessage == "drive download failed: 404 not found" && e.UserID == "u1"
	})).Return(nil)

	err := ledger.Failed(context.Background(), &model.QueueItem{ID: 1, UserID: "u1"},
		&apperr.DownloadError{Status: 404, Body: "not found"})

	require.NoError(t, err)
	ok.AssertExpectations(t)
}

func TestStatusLedger_PersistenceErrorSkipsNotify(t *testing.T) {
	queue := new(MockQueueRepo)
	n := new(MockNotifier)
	ledger := usecase.NewStatusLedger(queue, n)
	queue.On("MarkPosted", mock.Anything, int64(1)).Return(errors.New("db down"))

	err := ledger.Posted(context.Background(), &model.QueueItem{ID: 1}, nil)

	assert.True(t, apperr.IsPersistence(err))
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "missing accounts", usecase.FailureMessage(fmt.Errorf("wrapped: %w", apperr.ErrMissingAccounts)))
	assert.Equal(t, "unknown error", usecase.FailureMessage(nil))
	assert.Equal(t, "boom", usecase.FailureMessage(errors.New("boom")))
}
