// Package tracker manages tracked QR codes: short redirect URLs bound
// to a stored QR image, with per-scan analytics and a per-resource
// manage token for stats and deletion.
package tracker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prasetyowira/qrserve/constant"
	"github.com/prasetyowira/qrserve/infrastructure/cache"
	"github.com/prasetyowira/qrserve/infrastructure/logger"
)

var (
	ErrEmptyTargetURL   = errors.New("tracker: target URL cannot be empty")
	ErrInvalidTargetURL = errors.New("tracker: target URL must start with http:// or https://")
	ErrInvalidShortCode = errors.New("tracker: short code must be 3-32 alphanumeric, hyphen, or underscore characters")
	ErrShortCodeTaken   = errors.New("tracker: short code already taken")
	ErrNotFound         = errors.New("tracker: tracked QR not found")
	ErrExpired          = errors.New("tracker: short URL has expired")
	ErrInvalidToken     = errors.New("tracker: invalid manage token")
)

var shortCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// QRImage is the rendered symbol stored alongside a tracked QR, with
// the generation parameters it was produced from.
type QRImage struct {
	ID              string
	Data            []byte
	MIME            string
	Format          string
	Size            int
	FgColor         string
	BgColor         string
	ErrorCorrection string
	Style           string
}

// TrackedQR is a short-code redirect bound to a stored QR image. The
// manage token itself is never persisted, only its SHA-256 hash.
type TrackedQR struct {
	ID              string
	ShortCode       string
	TargetURL       string
	ManageTokenHash string
	ScanCount       int64
	ExpiresAt       *time.Time
	CreatedAt       time.Time
	Image           QRImage
}

// Expired reports whether the tracked QR is past its expiry.
func (t *TrackedQR) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// ScanEvent records one redirect hit.
type ScanEvent struct {
	ID        string
	TrackedID string
	ScannedAt time.Time
	UserAgent string
	Referrer  string
}

// ScanMeta is the request metadata captured per scan.
type ScanMeta struct {
	UserAgent string
	Referrer  string
}

// CreateParams are the inputs for creating a tracked QR.
type CreateParams struct {
	TargetURL string
	ShortCode string // optional; autogenerated when empty
	ExpiresAt *time.Time
	Image     QRImage
}

// Repository defines the persistence operations the service needs.
type Repository interface {
	Create(ctx context.Context, t *TrackedQR) error
	FindByID(ctx context.Context, id string) (*TrackedQR, error)
	FindByShortCode(ctx context.Context, code string) (*TrackedQR, error)
	CountByShortCode(ctx context.Context, code string) (int64, error)
	RecordScan(ctx context.Context, event *ScanEvent) error
	ListScans(ctx context.Context, trackedID string, limit int) ([]ScanEvent, error)
	Delete(ctx context.Context, id string) error
}

// HashToken returns the hex SHA-256 digest stored in place of a manage
// token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Service implements the tracked QR use cases over a repository, with
// an LRU cache in front of short-code resolution.
type Service struct {
	repo  Repository
	cache *cache.NamespaceLRU
}

// NewService creates a tracker service.
func NewService(repo Repository, lru *cache.NamespaceLRU) *Service {
	logger.Debug("Creating tracker service", logger.LoggerInfo{
		ContextFunction: constant.CtxDomain,
		Data: map[string]interface{}{
			constant.DataService: "tracker",
		},
	})

	return &Service{repo: repo, cache: lru}
}

// Create validates the input, mints the short code and manage token,
// and persists the tracked QR with its rendered image. The plaintext
// token is returned exactly once, here.
func (s *Service) Create(ctx context.Context, params CreateParams) (*TrackedQR, string, error) {
	if params.TargetURL == "" {
		logger.CtxWarn(ctx, "Target URL cannot be empty", logger.LoggerInfo{
			ContextFunction: constant.CtxCreateTracked,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeEmptyTargetURL,
				Message: ErrEmptyTargetURL.Error(),
				Type:    constant.ErrTypeValidation,
			},
		})
		return nil, "", ErrEmptyTargetURL
	}
	if !strings.HasPrefix(params.TargetURL, "http://") && !strings.HasPrefix(params.TargetURL, "https://") {
		logger.CtxWarn(ctx, "Target URL has unsupported scheme", logger.LoggerInfo{
			ContextFunction: constant.CtxCreateTracked,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeInvalidTargetURL,
				Message: ErrInvalidTargetURL.Error(),
				Type:    constant.ErrTypeValidation,
			},
			Data: map[string]interface{}{
				constant.DataTargetURL: params.TargetURL,
			},
		})
		return nil, "", ErrInvalidTargetURL
	}

	shortCode := params.ShortCode
	custom := shortCode != ""
	if custom {
		if !shortCodePattern.MatchString(shortCode) {
			logger.CtxWarn(ctx, "Rejecting malformed short code", logger.LoggerInfo{
				ContextFunction: constant.CtxCreateTracked,
				Error: &logger.CustomError{
					Code:    constant.ErrCodeInvalidShortCode,
					Message: ErrInvalidShortCode.Error(),
					Type:    constant.ErrTypeValidation,
				},
				Data: map[string]interface{}{
					constant.DataShortCode: shortCode,
				},
			})
			return nil, "", ErrInvalidShortCode
		}
	} else {
		shortCode = NewShortCode()
	}

	count, err := s.repo.CountByShortCode(ctx, shortCode)
	if err != nil {
		logger.CtxError(ctx, "Failed to check short code availability", logger.LoggerInfo{
			ContextFunction: constant.CtxCreateTracked,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeStorageFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeStorage,
			},
			Data: map[string]interface{}{
				constant.DataShortCode: shortCode,
			},
		})
		return nil, "", err
	}
	if count > 0 {
		logger.CtxWarn(ctx, "Short code already taken", logger.LoggerInfo{
			ContextFunction: constant.CtxCreateTracked,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeShortCodeTaken,
				Message: ErrShortCodeTaken.Error(),
				Type:    constant.ErrTypeValidation,
			},
			Data: map[string]interface{}{
				constant.DataShortCode: shortCode,
				constant.DataCustom:    custom,
			},
		})
		return nil, "", ErrShortCodeTaken
	}

	token := constant.ManageTokenPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")

	tracked := &TrackedQR{
		ID:              uuid.New().String(),
		ShortCode:       shortCode,
		TargetURL:       params.TargetURL,
		ManageTokenHash: HashToken(token),
		ExpiresAt:       params.ExpiresAt,
		CreatedAt:       time.Now().UTC(),
		Image:           params.Image,
	}
	tracked.Image.ID = uuid.New().String()

	if err := s.repo.Create(ctx, tracked); err != nil {
		logger.CtxError(ctx, "Failed to store tracked QR", logger.LoggerInfo{
			ContextFunction: constant.CtxCreateTracked,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeStorageFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeStorage,
			},
			Data: map[string]interface{}{
				constant.DataShortCode: shortCode,
				constant.DataTargetURL: params.TargetURL,
			},
		})
		return nil, "", err
	}

	s.cache.Set(constant.TrackedNamespace, shortCode, tracked)

	logger.CtxInfo(ctx, "Tracked QR created", logger.LoggerInfo{
		ContextFunction: constant.CtxCreateTracked,
		Data: map[string]interface{}{
			constant.DataTrackedID: tracked.ID,
			constant.DataShortCode: shortCode,
			constant.DataTargetURL: params.TargetURL,
			constant.DataCustom:    custom,
		},
	})

	return tracked, token, nil
}

// Resolve looks up a short code for redirecting, records the scan, and
// bumps the scan count. Expired entries return ErrExpired without
// recording anything.
func (s *Service) Resolve(ctx context.Context, shortCode string, meta ScanMeta) (*TrackedQR, error) {
	tracked, fromCache := s.cachedByShortCode(shortCode)
	if !fromCache {
		var err error
		tracked, err = s.repo.FindByShortCode(ctx, shortCode)
		if err != nil {
			logger.CtxWarn(ctx, "Short code lookup failed", logger.LoggerInfo{
				ContextFunction: constant.CtxResolve,
				Error: &logger.CustomError{
					Code:    constant.ErrCodeTrackedNotFound,
					Message: err.Error(),
					Type:    constant.ErrTypeRetrieval,
				},
				Data: map[string]interface{}{
					constant.DataShortCode: shortCode,
				},
			})
			return nil, err
		}
		s.cache.Set(constant.TrackedNamespace, shortCode, tracked)
	}

	if tracked.Expired(time.Now().UTC()) {
		logger.CtxInfo(ctx, "Tracked QR expired", logger.LoggerInfo{
			ContextFunction: constant.CtxResolve,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeTrackedExpired,
				Message: ErrExpired.Error(),
				Type:    constant.ErrTypeRetrieval,
			},
			Data: map[string]interface{}{
				constant.DataShortCode: shortCode,
				constant.DataExpiresAt: tracked.ExpiresAt,
			},
		})
		return nil, ErrExpired
	}

	event := &ScanEvent{
		ID:        uuid.New().String(),
		TrackedID: tracked.ID,
		ScannedAt: time.Now().UTC(),
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}
	if err := s.repo.RecordScan(ctx, event); err != nil {
		// The redirect matters more than the analytics row.
		logger.CtxWarn(ctx, "Failed to record scan event", logger.LoggerInfo{
			ContextFunction: constant.CtxResolve,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeRecordScan,
				Message: err.Error(),
				Type:    constant.ErrTypeAnalytics,
			},
			Data: map[string]interface{}{
				constant.DataShortCode: shortCode,
			},
		})
	} else {
		tracked.ScanCount++
	}

	logger.CtxInfo(ctx, "Resolved short code", logger.LoggerInfo{
		ContextFunction: constant.CtxResolve,
		Data: map[string]interface{}{
			constant.DataShortCode: shortCode,
			constant.DataTargetURL: tracked.TargetURL,
			constant.DataScanCount: tracked.ScanCount,
		},
	})

	return tracked, nil
}

// Authorize fetches a tracked QR by id and verifies the manage token
// against the stored hash. A wrong token reads the same as a missing
// record to callers that choose to collapse the two.
func (s *Service) Authorize(ctx context.Context, id, token string) (*TrackedQR, error) {
	tracked, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if HashToken(token) != tracked.ManageTokenHash {
		logger.CtxWarn(ctx, "Manage token mismatch", logger.LoggerInfo{
			ContextFunction: constant.CtxStats,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeTokenMismatch,
				Message: ErrInvalidToken.Error(),
				Type:    constant.ErrTypeRetrieval,
			},
			Data: map[string]interface{}{
				constant.DataTrackedID: id,
			},
		})
		return nil, ErrInvalidToken
	}
	return tracked, nil
}

// Stats returns the tracked QR plus its most recent scans, newest
// first, capped at the configured limit.
func (s *Service) Stats(ctx context.Context, id, token string) (*TrackedQR, []ScanEvent, error) {
	tracked, err := s.Authorize(ctx, id, token)
	if err != nil {
		return nil, nil, err
	}

	scans, err := s.repo.ListScans(ctx, id, constant.RecentScansLimit)
	if err != nil {
		logger.CtxError(ctx, "Failed to list scan events", logger.LoggerInfo{
			ContextFunction: constant.CtxStats,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeRecordScan,
				Message: err.Error(),
				Type:    constant.ErrTypeAnalytics,
			},
			Data: map[string]interface{}{
				constant.DataTrackedID: id,
			},
		})
		return nil, nil, err
	}

	return tracked, scans, nil
}

// Delete removes a tracked QR, its stored image, and its scan events
// after a successful token check.
func (s *Service) Delete(ctx context.Context, id, token string) error {
	tracked, err := s.Authorize(ctx, id, token)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		logger.CtxError(ctx, "Failed to delete tracked QR", logger.LoggerInfo{
			ContextFunction: constant.CtxDeleteTracked,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeStorageFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeStorage,
			},
			Data: map[string]interface{}{
				constant.DataTrackedID: id,
			},
		})
		return err
	}

	s.cache.Invalidate(constant.TrackedNamespace, tracked.ShortCode)

	logger.CtxInfo(ctx, "Tracked QR deleted", logger.LoggerInfo{
		ContextFunction: constant.CtxDeleteTracked,
		Data: map[string]interface{}{
			constant.DataTrackedID: id,
			constant.DataShortCode: tracked.ShortCode,
		},
	})

	return nil
}

func (s *Service) cachedByShortCode(shortCode string) (*TrackedQR, bool) {
	val, found := s.cache.Get(constant.TrackedNamespace, shortCode)
	if !found {
		return nil, false
	}
	tracked, ok := val.(*TrackedQR)
	return tracked, ok
}

// NewShortCode derives a compact random code from a fresh UUID.
func NewShortCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:constant.AutoShortCodeLen]
}
