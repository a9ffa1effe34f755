package constant

// Domain service error codes
const (
	// Tracked QR service - Validation errors (0xx)
	ErrCodeEmptyTargetURL   = "QRS001"
	ErrCodeInvalidTargetURL = "QRS002"
	ErrCodeInvalidShortCode = "QRS003"
	ErrCodeShortCodeTaken   = "QRS004"

	// Tracked QR service - Storage errors (1xx)
	ErrCodeStorageFailure = "QRS101"

	// Tracked QR service - Retrieval errors (2xx)
	ErrCodeTrackedNotFound = "QRS201"
	ErrCodeTrackedExpired  = "QRS202"
	ErrCodeTokenMismatch   = "QRS203"

	// Tracked QR service - Analytics errors (3xx)
	ErrCodeRecordScan = "QRS301"
)

// Database error codes
const (
	// General DB errors (5xx)
	ErrCodeDBGeneral = "DB500"

	// Connection errors (0xx)
	ErrCodeDBOpen    = "DB001"
	ErrCodeDBMigrate = "DB002"

	// Store operation errors (1xx)
	ErrCodeDBCheckExists = "DB101"
	ErrCodeDBInsert      = "DB102"

	// Lookup operation errors (2xx)
	ErrCodeDBLookup     = "DB201"
	ErrCodeDBScanRows   = "DB202"
	ErrCodeDBRowIterate = "DB203"

	// Scan recording errors (3xx)
	ErrCodeDBRecordScan = "DB301"

	// Delete operation errors (4xx)
	ErrCodeDBDelete = "DB401"

	// Close operation errors (9xx)
	ErrCodeDBClose = "DB901"
)

// API and application error codes
const (
	ErrCodeAPIDecodeRequest  = "API001"
	ErrCodeAPIRenderError    = "API002"
	ErrCodeAPIServiceError   = "API003"
	ErrCodeAppDBInit         = "APP001"
	ErrCodeAppServerStart    = "APP002"
	ErrCodeAppServerShutdown = "APP003"
	ErrCodeAppConfig         = "APP004"
)

// Error types for categorization
const (
	// Domain error types
	ErrTypeValidation = "validation"
	ErrTypeStorage    = "storage"
	ErrTypeRetrieval  = "retrieval"
	ErrTypeAnalytics  = "analytics"

	// Infrastructure error types
	ErrTypeDB  = "db"
	ErrTypeAPI = "api"
	ErrTypeApp = "application"
)

// Wire error codes returned in JSON error bodies.
const (
	CodeEmptyData              = "EMPTY_DATA"
	CodeInvalidSize            = "INVALID_SIZE"
	CodeInvalidFormat          = "INVALID_FORMAT"
	CodeInvalidFgColor         = "INVALID_FG_COLOR"
	CodeInvalidBgColor         = "INVALID_BG_COLOR"
	CodeInvalidLogo            = "INVALID_LOGO"
	CodeInvalidLogoSize        = "INVALID_LOGO_SIZE"
	CodeLogoTooLarge           = "LOGO_TOO_LARGE"
	CodeUnsupportedCombination = "UNSUPPORTED_COMBINATION"
	CodeGenerationFailed       = "GENERATION_FAILED"
	CodeInvalidImage           = "INVALID_IMAGE"
	CodeDecodeFailed           = "DECODE_FAILED"
	CodeEmptyBatch             = "EMPTY_BATCH"
	CodeBatchTooLarge          = "BATCH_TOO_LARGE"
	CodeMissingSSID            = "MISSING_SSID"
	CodeMissingName            = "MISSING_NAME"
	CodeMissingURL             = "MISSING_URL"
	CodeInvalidTemplate        = "INVALID_TEMPLATE"
	CodeInvalidData            = "INVALID_DATA"
	CodeInvalidTargetURL       = "INVALID_TARGET_URL"
	CodeInvalidShortCode       = "INVALID_SHORT_CODE"
	CodeShortCodeTaken         = "SHORT_CODE_TAKEN"
	CodeInvalidExpiry          = "INVALID_EXPIRY"
	CodeNotFound               = "NOT_FOUND"
	CodeExpired                = "EXPIRED"
	CodeInvalidToken           = "INVALID_TOKEN"
	CodeRateLimited            = "RATE_LIMITED"
	CodeInternalError          = "INTERNAL_ERROR"
)
