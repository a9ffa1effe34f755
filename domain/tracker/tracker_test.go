package tracker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/prasetyowira/qrserve/constant"
	"github.com/prasetyowira/qrserve/infrastructure/cache"
)

// Mock repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, t *TrackedQR) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*TrackedQR, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TrackedQR), args.Error(1)
}

func (m *MockRepository) FindByShortCode(ctx context.Context, code string) (*TrackedQR, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TrackedQR), args.Error(1)
}

func (m *MockRepository) CountByShortCode(ctx context.Context, code string) (int64, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) RecordScan(ctx context.Context, event *ScanEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) ListScans(ctx context.Context, trackedID string, limit int) ([]ScanEvent, error) {
	args := m.Called(ctx, trackedID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ScanEvent), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, cache.NewNamespaceLRU(100))
}

func TestCreate_EmptyTargetURL(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	// Act
	tracked, token, err := service.Create(context.Background(), CreateParams{})

	// Assert
	assert.ErrorIs(t, err, ErrEmptyTargetURL)
	assert.Nil(t, tracked)
	assert.Empty(t, token)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCreate_InvalidScheme(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, _, err := service.Create(context.Background(), CreateParams{TargetURL: "ftp://example.com"})

	assert.ErrorIs(t, err, ErrInvalidTargetURL)
}

func TestCreate_InvalidShortCode(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	for _, code := range []string{"ab", "has space", "bad!char", strings.Repeat("x", 33)} {
		_, _, err := service.Create(context.Background(), CreateParams{
			TargetURL: "https://example.com",
			ShortCode: code,
		})
		assert.ErrorIs(t, err, ErrInvalidShortCode, "code %q", code)
	}
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCreate_CustomShortCode(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("CountByShortCode", mock.Anything, "my-code_1").Return(int64(0), nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(tr *TrackedQR) bool {
		return tr.ShortCode == "my-code_1" && tr.TargetURL == "https://example.com"
	})).Return(nil)

	// Act
	tracked, token, err := service.Create(context.Background(), CreateParams{
		TargetURL: "https://example.com",
		ShortCode: "my-code_1",
	})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "my-code_1", tracked.ShortCode)
	assert.True(t, strings.HasPrefix(token, constant.ManageTokenPrefix))
	assert.Equal(t, HashToken(token), tracked.ManageTokenHash)
	assert.NotEmpty(t, tracked.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreate_AutoShortCode(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("CountByShortCode", mock.Anything, mock.Anything).Return(int64(0), nil)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	tracked, _, err := service.Create(context.Background(), CreateParams{
		TargetURL: "https://example.com",
	})

	assert.NoError(t, err)
	assert.Len(t, tracked.ShortCode, constant.AutoShortCodeLen)
}

func TestCreate_ShortCodeTaken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("CountByShortCode", mock.Anything, "taken").Return(int64(1), nil)

	_, _, err := service.Create(context.Background(), CreateParams{
		TargetURL: "https://example.com",
		ShortCode: "taken",
	})

	assert.ErrorIs(t, err, ErrShortCodeTaken)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestResolve_RecordsScan(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	stored := &TrackedQR{ID: "id-1", ShortCode: "abc", TargetURL: "https://example.com"}
	mockRepo.On("FindByShortCode", mock.Anything, "abc").Return(stored, nil).Once()
	mockRepo.On("RecordScan", mock.Anything, mock.MatchedBy(func(e *ScanEvent) bool {
		return e.TrackedID == "id-1" && e.UserAgent == "test-agent"
	})).Return(nil)

	// Act
	tracked, err := service.Resolve(context.Background(), "abc", ScanMeta{UserAgent: "test-agent"})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com", tracked.TargetURL)
	assert.Equal(t, int64(1), tracked.ScanCount)
	mockRepo.AssertExpectations(t)
}

func TestResolve_CacheHitSkipsLookup(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	stored := &TrackedQR{ID: "id-1", ShortCode: "abc", TargetURL: "https://example.com"}
	mockRepo.On("FindByShortCode", mock.Anything, "abc").Return(stored, nil).Once()
	mockRepo.On("RecordScan", mock.Anything, mock.Anything).Return(nil)

	_, err := service.Resolve(context.Background(), "abc", ScanMeta{})
	assert.NoError(t, err)

	// Second resolve is served from cache; FindByShortCode stays at one call.
	tracked, err := service.Resolve(context.Background(), "abc", ScanMeta{})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), tracked.ScanCount)
	mockRepo.AssertNumberOfCalls(t, "FindByShortCode", 1)
}

func TestResolve_Expired(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	past := time.Now().UTC().Add(-time.Hour)
	stored := &TrackedQR{ID: "id-1", ShortCode: "abc", TargetURL: "https://example.com", ExpiresAt: &past}
	mockRepo.On("FindByShortCode", mock.Anything, "abc").Return(stored, nil)

	_, err := service.Resolve(context.Background(), "abc", ScanMeta{})

	assert.ErrorIs(t, err, ErrExpired)
	mockRepo.AssertNotCalled(t, "RecordScan")
}

func TestResolve_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("FindByShortCode", mock.Anything, "missing").Return(nil, ErrNotFound)

	_, err := service.Resolve(context.Background(), "missing", ScanMeta{})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_ScanFailureStillRedirects(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	stored := &TrackedQR{ID: "id-1", ShortCode: "abc", TargetURL: "https://example.com"}
	mockRepo.On("FindByShortCode", mock.Anything, "abc").Return(stored, nil)
	mockRepo.On("RecordScan", mock.Anything, mock.Anything).Return(errors.New("db down"))

	tracked, err := service.Resolve(context.Background(), "abc", ScanMeta{})

	assert.NoError(t, err)
	assert.Equal(t, int64(0), tracked.ScanCount)
}

func TestStats_TokenChecked(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	token := "qrt_good"
	stored := &TrackedQR{ID: "id-1", ManageTokenHash: HashToken(token), ScanCount: 3}
	mockRepo.On("FindByID", mock.Anything, "id-1").Return(stored, nil)
	mockRepo.On("ListScans", mock.Anything, "id-1", constant.RecentScansLimit).
		Return([]ScanEvent{{ID: "s1"}, {ID: "s2"}}, nil)

	// Act
	tracked, scans, err := service.Stats(context.Background(), "id-1", token)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(3), tracked.ScanCount)
	assert.Len(t, scans, 2)
}

func TestStats_WrongToken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	stored := &TrackedQR{ID: "id-1", ManageTokenHash: HashToken("qrt_right")}
	mockRepo.On("FindByID", mock.Anything, "id-1").Return(stored, nil)

	_, _, err := service.Stats(context.Background(), "id-1", "qrt_wrong")

	assert.ErrorIs(t, err, ErrInvalidToken)
	mockRepo.AssertNotCalled(t, "ListScans")
}

func TestDelete_InvalidatesCache(t *testing.T) {
	mockRepo := new(MockRepository)
	lru := cache.NewNamespaceLRU(100)
	service := NewService(mockRepo, lru)

	token := "qrt_good"
	stored := &TrackedQR{ID: "id-1", ShortCode: "abc", ManageTokenHash: HashToken(token)}
	lru.Set(constant.TrackedNamespace, "abc", stored)

	mockRepo.On("FindByID", mock.Anything, "id-1").Return(stored, nil)
	mockRepo.On("Delete", mock.Anything, "id-1").Return(nil)

	err := service.Delete(context.Background(), "id-1", token)

	assert.NoError(t, err)
	_, found := lru.Get(constant.TrackedNamespace, "abc")
	assert.False(t, found)
	mockRepo.AssertExpectations(t)
}

func TestDelete_WrongToken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	stored := &TrackedQR{ID: "id-1", ManageTokenHash: HashToken("qrt_right")}
	mockRepo.On("FindByID", mock.Anything, "id-1").Return(stored, nil)

	err := service.Delete(context.Background(), "id-1", "qrt_wrong")

	assert.ErrorIs(t, err, ErrInvalidToken)
	mockRepo.AssertNotCalled(t, "Delete")
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("qrt_x"), 64)
	assert.Equal(t, HashToken("same"), HashToken("same"))
	assert.NotEqual(t, HashToken("a"), HashToken("b"))
}

func TestExpired(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.False(t, (&TrackedQR{}).Expired(now))
	assert.False(t, (&TrackedQR{ExpiresAt: &future}).Expired(now))
	assert.True(t, (&TrackedQR{ExpiresAt: &past}).Expired(now))
}
