package usecase_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/model"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) FindByUserAndProvider(ctx context.Context, userID string, provider model.Provider) ([]*model.DelegatedAccount, error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DelegatedAccount), args.Error(1)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*model.DelegatedAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DelegatedAccount), args.Error(1)
}

func (m *MockAccountRepo) UpdateAccessToken(ctx context.Context, id int64, accessTokenEnc string, expiresAt *time.Time) error {
	args := m.Called(ctx, id, accessTokenEnc, expiresAt)
	return args.Error(0)
}

func (m *MockAccountRepo) Upsert(ctx context.Context, account *model.DelegatedAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type MockScheduleRepo struct {
	mock.Mock
}

func (m *MockScheduleRepo) FindByBucket(ctx context.Context, dayOfWeek int, timeOfDay string) ([]*model.ScheduleEntry, error) {
	args := m.Called(ctx, dayOfWeek, timeOfDay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScheduleEntry), args.Error(1)
}

func (m *MockScheduleRepo) ListByUser(ctx context.Context, userID string) ([]*model.ScheduleEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScheduleEntry), args.Error(1)
}

func (m *MockScheduleRepo) ReplaceForUser(ctx context.Context, userID string, entries []*model.ScheduleEntry) error {
	args := m.Called(ctx, userID, entries)
	return args.Error(0)
}

func (m *MockScheduleRepo) MarkFired(ctx context.Context, userID string, at time.Time) (bool, error) {
	args := m.Called(ctx, userID, at)
	return args.Bool(0), args.Error(1)
}

type MockQueueRepo struct {
	mock.Mock
}

func (m *MockQueueRepo) ClaimNext(ctx context.Context, userID string) (*model.QueueItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueItem), args.Error(1)
}

func (m *MockQueueRepo) MarkPosted(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQueueRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

func (m *MockQueueRepo) ListByUser(ctx context.Context, userID string) ([]*model.QueueItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QueueItem), args.Error(1)
}

func (m *MockQueueRepo) Append(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueItem), args.Error(1)
}

func (m *MockQueueRepo) Delete(ctx context.Context, userID string, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

type MockTokenProvider struct {
	mock.Mock
	provider model.Provider
}

func (m *MockTokenProvider) Provider() model.Provider { return m.provider }

func (m *MockTokenProvider) Refresh(ctx context.Context, refreshToken string) (*model.RefreshedToken, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshedToken), args.Error(1)
}

type MockDrive struct {
	mock.Mock
}

func (m *MockDrive) Fetch(ctx context.Context, accessToken, fileID string) (*model.TempAsset, error) {
	args := m.Called(ctx, accessToken, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TempAsset), args.Error(1)
}

func (m *MockDrive) ListVideos(ctx context.Context, accessToken string) ([]model.DriveFile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DriveFile), args.Error(1)
}

type MockInstagram struct {
	mock.Mock
}

func (m *MockInstagram) Publish(ctx context.Context, accessToken string, video io.Reader, fileName, caption string) (*model.PublishResult, error) {
	body, _ := io.ReadAll(video)
	args := m.Called(ctx, accessToken, string(body), fileName, caption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, evt model.QueueEvent) error {
	return m.Called(ctx, evt).Error(0)
}

// prefixCodec "seals" by prefixing, which keeps expectations readable.
type prefixCodec struct{}

func (prefixCodec) Seal(plaintext string) (string, error) { return "enc:" + plaintext, nil }

func (prefixCodec) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, "enc:") {
		return "", errors.New("not sealed")
	}
	return strings.TrimPrefix(sealed, "enc:"), nil
}

// localLocker serializes per account inside the test process.
type localLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
	calls int
}

func newLocalLocker() *localLocker { return &localLocker{locks: map[int64]*sync.Mutex{}} }

func (l *localLocker) Lock(_ context.Context, id int64) (func(), error) {
	l.mu.Lock()
	l.calls++
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

func sealed(s string) *string {
	v := "enc:" + s
	return &v
}

func ptr[T any](v T) *T { return &v }

func newAsset(fs afero.Fs, name, body string) *model.TempAsset {
	f, err := afero.TempFile(fs, "", name)
	if err != nil {
		panic(err)
	}
	_, _ = f.WriteString(body)
	_ = f.Close()
	return &model.TempAsset{Fs: fs, Path: f.Name(), Name: name + ".mp4", Size: int64(len(body))}
}
