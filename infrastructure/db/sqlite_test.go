package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyowira/qrserve/domain/tracker"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testTracked(shortCode string) *tracker.TrackedQR {
	return &tracker.TrackedQR{
		ID:              uuid.New().String(),
		ShortCode:       shortCode,
		TargetURL:       "https://example.com",
		ManageTokenHash: tracker.HashToken("qrt_test"),
		CreatedAt:       time.Now().UTC(),
		Image: tracker.QRImage{
			ID:              uuid.New().String(),
			Data:            []byte{0x89, 0x50, 0x4E, 0x47},
			Format:          "png",
			Size:            256,
			FgColor:         "#000000",
			BgColor:         "#FFFFFF",
			ErrorCorrection: "M",
			Style:           "square",
		},
	}
}

func TestCreateAndFindByShortCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tracked := testTracked("abc123")
	require.NoError(t, repo.Create(ctx, tracked))

	found, err := repo.FindByShortCode(ctx, "abc123")
	require.NoError(t, err)

	assert.Equal(t, tracked.ID, found.ID)
	assert.Equal(t, "https://example.com", found.TargetURL)
	assert.Equal(t, tracked.ManageTokenHash, found.ManageTokenHash)
	assert.Equal(t, int64(0), found.ScanCount)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, found.Image.Data)
	assert.Equal(t, "png", found.Image.Format)
	assert.Equal(t, 256, found.Image.Size)
}

func TestFindByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tracked := testTracked("byid")
	require.NoError(t, repo.Create(ctx, tracked))

	found, err := repo.FindByID(ctx, tracked.ID)
	require.NoError(t, err)
	assert.Equal(t, "byid", found.ShortCode)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestFindByShortCodeNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindByShortCode(context.Background(), "missing")

	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestCountByShortCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	count, err := repo.CountByShortCode(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, repo.Create(ctx, testTracked("dup")))

	count, err = repo.CountByShortCode(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRecordScanAndListScans(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tracked := testTracked("scanned")
	require.NoError(t, repo.Create(ctx, tracked))

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		err := repo.RecordScan(ctx, &tracker.ScanEvent{
			ID:        uuid.New().String(),
			TrackedID: tracked.ID,
			ScannedAt: base.Add(time.Duration(i) * time.Second),
			UserAgent: "agent",
			Referrer:  "https://ref.example.com",
		})
		require.NoError(t, err)
	}

	found, err := repo.FindByID(ctx, tracked.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.ScanCount)

	scans, err := repo.ListScans(ctx, tracked.ID, 100)
	require.NoError(t, err)
	require.Len(t, scans, 3)
	// Newest first.
	assert.True(t, !scans[0].ScannedAt.Before(scans[1].ScannedAt))
	assert.Equal(t, "agent", scans[0].UserAgent)

	limited, err := repo.ListScans(ctx, tracked.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDeleteCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tracked := testTracked("gone")
	require.NoError(t, repo.Create(ctx, tracked))
	require.NoError(t, repo.RecordScan(ctx, &tracker.ScanEvent{
		ID:        uuid.New().String(),
		TrackedID: tracked.ID,
		ScannedAt: time.Now().UTC(),
	}))

	require.NoError(t, repo.Delete(ctx, tracked.ID))

	_, err := repo.FindByID(ctx, tracked.ID)
	assert.ErrorIs(t, err, tracker.ErrNotFound)

	scans, err := repo.ListScans(ctx, tracked.ID, 100)
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestDeleteMissing(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Delete(context.Background(), "missing")

	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestExpiryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	expires := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	tracked := testTracked("expiring")
	tracked.ExpiresAt = &expires
	require.NoError(t, repo.Create(ctx, tracked))

	found, err := repo.FindByShortCode(ctx, "expiring")
	require.NoError(t, err)
	require.NotNil(t, found.ExpiresAt)
	assert.True(t, found.ExpiresAt.Equal(expires))
}
