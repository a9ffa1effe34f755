package constant

// QR generation defaults
const (
	DefaultFormat   = "png"
	DefaultSize     = 256
	DefaultFgColor  = "#000000"
	DefaultBgColor  = "#FFFFFF"
	DefaultECLevel  = "M"
	DefaultStyle    = "square"
	DefaultLogoSize = 20
)

// QR generation bounds
const (
	MinQRSize    = 64
	MaxQRSize    = 4096
	MinLogoSize  = 5
	MaxLogoSize  = 40
	MaxLogoBytes = 512 * 1024
)

// Batch bounds
const (
	MaxBatchItems = 50
)

// Tracked QR bounds
const (
	ShortCodeMinLen   = 3
	ShortCodeMaxLen   = 32
	AutoShortCodeLen  = 8
	RecentScansLimit  = 100
	ManageTokenPrefix = "qrt_"
)

// Rate limits per window
const (
	RateLimitGeneral uint64 = 100
	RateLimitTracked uint64 = 20
)
