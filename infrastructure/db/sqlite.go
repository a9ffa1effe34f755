// Package db persists tracked QR codes, their stored renders, and scan
// events in SQLite through GORM.
package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/prasetyowira/qrserve/constant"
	"github.com/prasetyowira/qrserve/domain/tracker"
	appLogger "github.com/prasetyowira/qrserve/infrastructure/logger"
)

// SQLiteRepository implements tracker.Repository.
type SQLiteRepository struct {
	db *gorm.DB
}

// QRCodeModel is the GORM model for a stored QR render.
type QRCodeModel struct {
	ID              string `gorm:"primaryKey"`
	Data            string `gorm:"not null"`
	Format          string `gorm:"not null;default:png"`
	Size            int    `gorm:"not null;default:256"`
	FgColor         string `gorm:"not null;default:#000000"`
	BgColor         string `gorm:"not null;default:#FFFFFF"`
	ErrorCorrection string `gorm:"not null;default:M"`
	Style           string `gorm:"not null;default:square"`
	ImageData       []byte
	CreatedAt       time.Time `gorm:"index"`
}

func (QRCodeModel) TableName() string { return "qr_codes" }

// TrackedQRModel is the GORM model for a tracked short code.
type TrackedQRModel struct {
	ID              string `gorm:"primaryKey"`
	QRID            string `gorm:"column:qr_id;not null"`
	ShortCode       string `gorm:"uniqueIndex;not null"`
	TargetURL       string `gorm:"not null"`
	ManageTokenHash string `gorm:"index;not null"`
	ScanCount       int64  `gorm:"not null;default:0"`
	ExpiresAt       *time.Time
	CreatedAt       time.Time
}

func (TrackedQRModel) TableName() string { return "tracked_qr" }

// ScanEventModel is the GORM model for one redirect hit.
type ScanEventModel struct {
	ID          string `gorm:"primaryKey"`
	TrackedQRID string `gorm:"column:tracked_qr_id;index;not null"`
	ScannedAt   time.Time
	UserAgent   string
	Referrer    string
}

func (ScanEventModel) TableName() string { return "scan_events" }

// GormLogger routes GORM's log output through the application logger.
type GormLogger struct{}

// LogMode implements the log.Interface method
func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	return l
}

// Info logs info messages
func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxInfo(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Warn logs warn messages
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxWarn(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Error logs error messages
func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxError(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Error: &appLogger.CustomError{
			Code:    constant.ErrCodeDBGeneral,
			Message: msg,
			Type:    constant.ErrTypeDB,
		},
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Trace logs SQL operations
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		appLogger.CtxError(ctx, "SQL error", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBGeneral,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataElapsed: elapsed.String(),
				constant.DataRows:    rows,
				constant.DataSQL:     sql,
			},
		})
		return
	}

	appLogger.CtxDebug(ctx, "SQL query", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataElapsed: elapsed.String(),
			constant.DataRows:    rows,
			constant.DataSQL:     sql,
		},
	})
}

// NewSQLiteRepository opens the database and migrates the schema.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	ctx := appLogger.NewRequestContext()

	appLogger.CtxDebug(ctx, "Opening SQLite database", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataPath: dbPath,
		},
	})

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: &GormLogger{},
	})
	if err != nil {
		appLogger.CtxError(ctx, "Failed to open database", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBOpen,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataPath: dbPath,
			},
		})
		return nil, err
	}

	if err := db.AutoMigrate(&QRCodeModel{}, &TrackedQRModel{}, &ScanEventModel{}); err != nil {
		appLogger.CtxError(ctx, "Failed to migrate database schema", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBMigrate,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
		})
		return nil, err
	}

	appLogger.CtxInfo(ctx, "Database initialized successfully", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataPath: dbPath,
		},
	})

	return &SQLiteRepository{db: db}, nil
}

// Create persists a tracked QR together with its rendered image in one
// transaction.
func (r *SQLiteRepository) Create(ctx context.Context, t *tracker.TrackedQR) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img := t.Image
		if res := tx.Exec(
			`INSERT INTO qr_codes (id, data, format, size, fg_color, bg_color, error_correction, style, image_data, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			img.ID, t.TargetURL, img.Format, img.Size, img.FgColor, img.BgColor,
			img.ErrorCorrection, img.Style, img.Data, t.CreatedAt,
		); res.Error != nil {
			return res.Error
		}

		res := tx.Exec(
			`INSERT INTO tracked_qr (id, qr_id, short_code, target_url, manage_token_hash, scan_count, expires_at, created_at)
			 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
			t.ID, img.ID, t.ShortCode, t.TargetURL, t.ManageTokenHash, t.ExpiresAt, t.CreatedAt,
		)
		return res.Error
	})
	if err != nil {
		appLogger.CtxError(ctx, "Failed to insert tracked QR", appLogger.LoggerInfo{
			ContextFunction: constant.CtxStore,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBInsert,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataShortCode: t.ShortCode,
				constant.DataTargetURL: t.TargetURL,
			},
		})
		return err
	}

	appLogger.CtxInfo(ctx, "Tracked QR stored", appLogger.LoggerInfo{
		ContextFunction: constant.CtxStore,
		Data: map[string]interface{}{
			constant.DataTrackedID: t.ID,
			constant.DataShortCode: t.ShortCode,
		},
	})
	return nil
}

// trackedRow joins tracked_qr with its qr_codes record.
type trackedRow struct {
	TrackedQRModel
	QRFormat          string `gorm:"column:qr_format"`
	QRSize            int    `gorm:"column:qr_size"`
	QRFgColor         string `gorm:"column:qr_fg_color"`
	QRBgColor         string `gorm:"column:qr_bg_color"`
	QRErrorCorrection string `gorm:"column:qr_error_correction"`
	QRStyle           string `gorm:"column:qr_style"`
	QRImageData       []byte `gorm:"column:qr_image_data"`
}

// mimeFor maps a stored format name back to its content type. MIME is
// derived rather than persisted; the format column is authoritative.
func mimeFor(format string) string {
	switch format {
	case "svg":
		return "image/svg+xml"
	case "pdf":
		return "application/pdf"
	default:
		return "image/png"
	}
}

const trackedSelect = `
	SELECT t.id, t.qr_id, t.short_code, t.target_url, t.manage_token_hash,
	       t.scan_count, t.expires_at, t.created_at,
	       q.format AS qr_format, q.size AS qr_size, q.fg_color AS qr_fg_color,
	       q.bg_color AS qr_bg_color, q.error_correction AS qr_error_correction,
	       q.style AS qr_style, q.image_data AS qr_image_data
	FROM tracked_qr t
	JOIN qr_codes q ON q.id = t.qr_id`

func (row *trackedRow) toDomain() *tracker.TrackedQR {
	return &tracker.TrackedQR{
		ID:              row.ID,
		ShortCode:       row.ShortCode,
		TargetURL:       row.TargetURL,
		ManageTokenHash: row.ManageTokenHash,
		ScanCount:       row.ScanCount,
		ExpiresAt:       row.ExpiresAt,
		CreatedAt:       row.CreatedAt,
		Image: tracker.QRImage{
			ID:              row.QRID,
			Data:            row.QRImageData,
			MIME:            mimeFor(row.QRFormat),
			Format:          row.QRFormat,
			Size:            row.QRSize,
			FgColor:         row.QRFgColor,
			BgColor:         row.QRBgColor,
			ErrorCorrection: row.QRErrorCorrection,
			Style:           row.QRStyle,
		},
	}
}

func (r *SQLiteRepository) findOne(ctx context.Context, fn string, where string, arg string) (*tracker.TrackedQR, error) {
	var row trackedRow
	res := r.db.WithContext(ctx).Raw(trackedSelect+where+" LIMIT 1", arg).Scan(&row)
	if res.Error != nil {
		appLogger.CtxError(ctx, "Database error during tracked QR lookup", appLogger.LoggerInfo{
			ContextFunction: fn,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBLookup,
				Message: res.Error.Error(),
				Type:    constant.ErrTypeDB,
			},
		})
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, tracker.ErrNotFound
	}
	return row.toDomain(), nil
}

// FindByID retrieves a tracked QR with its stored render.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*tracker.TrackedQR, error) {
	return r.findOne(ctx, constant.CtxFindByID, " WHERE t.id = ?", id)
}

// FindByShortCode retrieves a tracked QR by its short code.
func (r *SQLiteRepository) FindByShortCode(ctx context.Context, code string) (*tracker.TrackedQR, error) {
	return r.findOne(ctx, constant.CtxFindByShortCode, " WHERE t.short_code = ?", code)
}

// CountByShortCode reports how many tracked QRs claim a short code.
func (r *SQLiteRepository) CountByShortCode(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM tracked_qr WHERE short_code = ?`, code).
		Scan(&count).Error
	if err != nil {
		appLogger.CtxError(ctx, "Error checking for existing short code", appLogger.LoggerInfo{
			ContextFunction: constant.CtxStore,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBCheckExists,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataShortCode: code,
			},
		})
		return 0, err
	}
	return count, nil
}

// RecordScan inserts a scan event and bumps the tracked scan counter.
func (r *SQLiteRepository) RecordScan(ctx context.Context, event *tracker.ScanEvent) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if res := tx.Exec(
			`INSERT INTO scan_events (id, tracked_qr_id, scanned_at, user_agent, referrer) VALUES (?, ?, ?, ?, ?)`,
			event.ID, event.TrackedID, event.ScannedAt, event.UserAgent, event.Referrer,
		); res.Error != nil {
			return res.Error
		}
		res := tx.Exec(`UPDATE tracked_qr SET scan_count = scan_count + 1 WHERE id = ?`, event.TrackedID)
		return res.Error
	})
	if err != nil {
		appLogger.CtxError(ctx, "Failed to record scan event", appLogger.LoggerInfo{
			ContextFunction: constant.CtxRecordScan,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBRecordScan,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataTrackedID: event.TrackedID,
			},
		})
		return err
	}
	return nil
}

// ListScans returns the newest scan events for a tracked QR, capped at
// limit.
func (r *SQLiteRepository) ListScans(ctx context.Context, trackedID string, limit int) ([]tracker.ScanEvent, error) {
	var models []ScanEventModel
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, tracked_qr_id, scanned_at, user_agent, referrer
		     FROM scan_events WHERE tracked_qr_id = ? ORDER BY scanned_at DESC LIMIT ?`,
			trackedID, limit).
		Scan(&models).Error
	if err != nil {
		appLogger.CtxError(ctx, "Failed to list scan events", appLogger.LoggerInfo{
			ContextFunction: constant.CtxListScans,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBLookup,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataTrackedID: trackedID,
			},
		})
		return nil, err
	}

	events := make([]tracker.ScanEvent, 0, len(models))
	for _, m := range models {
		events = append(events, tracker.ScanEvent{
			ID:        m.ID,
			TrackedID: m.TrackedQRID,
			ScannedAt: m.ScannedAt,
			UserAgent: m.UserAgent,
			Referrer:  m.Referrer,
		})
	}
	return events, nil
}

// Delete removes a tracked QR, its scan events, and its stored render.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var qrID string
		res := tx.Raw(`SELECT qr_id FROM tracked_qr WHERE id = ?`, id).Scan(&qrID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tracker.ErrNotFound
		}

		if res := tx.Exec(`DELETE FROM scan_events WHERE tracked_qr_id = ?`, id); res.Error != nil {
			return res.Error
		}
		if res := tx.Exec(`DELETE FROM tracked_qr WHERE id = ?`, id); res.Error != nil {
			return res.Error
		}
		res = tx.Exec(`DELETE FROM qr_codes WHERE id = ?`, qrID)
		return res.Error
	})
	if err != nil && !errors.Is(err, tracker.ErrNotFound) {
		appLogger.CtxError(ctx, "Failed to delete tracked QR", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDelete,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBDelete,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataTrackedID: id,
			},
		})
	}
	return err
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	ctx := context.Background()
	sqlDB, err := r.db.DB()
	if err != nil {
		appLogger.CtxError(ctx, "Failed to get database connection", appLogger.LoggerInfo{
			ContextFunction: constant.CtxClose,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBClose,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
		})
		return err
	}

	appLogger.CtxInfo(ctx, "Closing database connection", appLogger.LoggerInfo{
		ContextFunction: constant.CtxClose,
	})

	return sqlDB.Close()
}
