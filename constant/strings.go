package constant

// Application metadata
const (
	AppName    = "qrserve"
	AppVersion = "1.0.0"
)

// Request context keys
const (
	RequestIDKey = "request_id"
)

// HTTP header names
const (
	HeaderRequestID          = "X-Request-ID"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

// Function/Context names
const (
	// Domain context names
	CtxDomain        = "domain"
	CtxCreateTracked = "CreateTracked"
	CtxResolve       = "Resolve"
	CtxStats         = "Stats"
	CtxDeleteTracked = "DeleteTracked"

	// Infrastructure context names
	CtxDB              = "db"
	CtxStore           = "Store"
	CtxFindByID        = "FindByID"
	CtxFindByShortCode = "FindByShortCode"
	CtxRecordScan      = "RecordScan"
	CtxListScans       = "ListScans"
	CtxDelete          = "Delete"
	CtxClose           = "Close"
	CtxAPI             = "api"
	CtxRateLimit       = "RateLimit"

	// API handler context names
	CtxGenerateQR  = "GenerateQR"
	CtxDecodeQR    = "DecodeQR"
	CtxBatchQR     = "BatchQR"
	CtxTemplateQR  = "TemplateQR"
	CtxViewQR      = "ViewQR"
	CtxRedirect    = "Redirect"
	CtxTrackedAPI  = "TrackedQR"
	CtxHealthcheck = "Healthcheck"

	// General context names
	CtxRouter = "Router"
	CtxMain   = "Main"
)

// Data field keys
const (
	// Service data fields
	DataService    = "service"
	DataShortCode  = "short_code"
	DataTargetURL  = "target_url"
	DataTrackedID  = "tracked_id"
	DataScanCount  = "scan_count"
	DataCustom     = "custom"
	DataExpiresAt  = "expires_at"

	// Render data fields
	DataFormat       = "format"
	DataSize         = "size"
	DataStyle        = "style"
	DataECLevel      = "error_correction"
	DataLogo         = "logo"
	DataTemplateType = "template_type"
	DataItems        = "items"
	DataGenerated    = "generated"

	// Database data fields
	DataPath         = "path"
	DataElapsed      = "elapsed"
	DataRows         = "rows"
	DataSQL          = "sql"
	DataData         = "data"
	DataRowsAffected = "rows_affected"

	// API data fields
	DataMethod      = "method"
	DataIP          = "ip"
	DataStatus      = "status"
	DataLatency     = "latency"
	DataRemoteAddr  = "remote_addr"
	DataUserAgent   = "user_agent"
	DataReferrer    = "referrer"
	DataPort        = "port"
	DataDBPath      = "db_path"
	DataEnvironment = "environment"
	DataLimit       = "limit"
	DataKey         = "key"
)

// API routes
const (
	RouteGenerate     = "/api/v1/qr/generate"
	RouteDecode       = "/api/v1/qr/decode"
	RouteBatch        = "/api/v1/qr/batch"
	RouteTemplate     = "/api/v1/qr/template/{templateType}"
	RouteView         = "/qr/view"
	RouteTracked      = "/api/v1/qr/tracked"
	RouteTrackedByID  = "/api/v1/qr/tracked/{id}"
	RouteTrackedImage = "/api/v1/qr/tracked/{id}/image"
	RouteRedirect     = "/r/{code}"
	RouteHealthcheck  = "/api/v1/health"
)

// Log keys
const (
	LogTimeKey         = "time"
	LogLevelKey        = "level"
	LogNameKey         = "logger"
	LogCallerKey       = "caller"
	LogMessageKey      = "msg"
	LogStacktraceKey   = "stacktrace"
	LogRequestIDKey    = "request_id"
	LogFunctionKey     = "function"
	LogErrorCodeKey    = "error_code"
	LogErrorTypeKey    = "error_type"
	LogErrorMessageKey = "error_message"
	LogEncodingJSON    = "json"
	LogEncodingConsole = "console"
	LogOutputStdout    = "stdout"
	LogOutputStderr    = "stderr"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Message constants for application
const (
	MsgApplicationStarting = "Application starting"
	MsgFailedToInitDB      = "Failed to initialize database"
	MsgServerStarting      = "Server starting"
	MsgServerFailedToStart = "Server failed to start"
	MsgServerShuttingDown  = "Server shutting down"
	MsgServerShutdownError = "Error during server shutdown"
	MsgServerStopped       = "Server stopped"
	MsgRequestReceived     = "Request received"
	MsgRequestCompleted    = "Request completed"
	MsgSettingUpRoutes     = "Setting up API routes"
	MsgHealthcheckRequest  = "Handling healthcheck request"
)

// Cache namespaces
const (
	TrackedNamespace = "TRACKED"
)
