package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQueueAdd(t *testing.T) {
	repo := new(MockQueueRepo)
	uc := usecase.NewQueueUsecase(repo)
	caption := "sunset"

	repo.On("Append", mock.Anything, mock.MatchedBy(func(i *model.QueueItem) bool {
		return i.UserID == "u1" && i.SourceAssetID == "file-1" && *i.Caption == "sunset" && i.Status == model.QueueStatusQueued
	})).Return(&model.QueueItem{ID: 4, UserID: "u1", SourceAssetID: "file-1", PostOrder: 3, Status: model.QueueStatusQueued}, nil)

	item, err := uc.Add(context.Background(), "u1", " file-1 ", &caption)

	require.NoError(t, err)
	assert.Equal(t, 3, item.PostOrder)
}

func TestQueueAdd_MissingFileID(t *testing.T) {
	repo := new(MockQueueRepo)
	uc := usecase.NewQueueUsecase(repo)

	_, err := uc.Add(context.Background(), "u1", "  ", nil)

	assert.True(t, apperr.IsValidation(err))
	assert.EqualError(t, err, "missing file id")
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestQueueList(t *testing.T) {
	repo := new(MockQueueRepo)
	uc := usecase.NewQueueUsecase(repo)
	repo.On("ListByUser", mock.Anything, "empty").Return(nil, nil)
	repo.On("ListByUser", mock.Anything, "broken").Return(nil, errors.New("boom"))

	items, err := uc.List(context.Background(), "empty")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = uc.List(context.Background(), "broken")
	assert.True(t, apperr.IsPersistence(err))
}

func TestQueueRemove(t *testing.T) {
	repo := new(MockQueueRepo)
	uc := usecase.NewQueueUsecase(repo)
	repo.On("Delete", mock.Anything, "u1", int64(8)).Return(nil)

	require.NoError(t, uc.Remove(context.Background(), "u1", 8))
	assert.True(t, apperr.IsValidation(uc.Remove(context.Background(), "u1", 0)))
	repo.AssertNumberOfCalls(t, "Delete", 1)
}
