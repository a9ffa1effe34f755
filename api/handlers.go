package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prasetyowira/qrserve/constant"
	"github.com/prasetyowira/qrserve/domain/render"
	"github.com/prasetyowira/qrserve/domain/tracker"
	appLogger "github.com/prasetyowira/qrserve/infrastructure/logger"
	"github.com/prasetyowira/qrserve/infrastructure/qrcode"
	"github.com/prasetyowira/qrserve/infrastructure/ratelimit"
)

// Handler contains service dependencies for API handlers
type Handler struct {
	tracker *tracker.Service
	limiter *ratelimit.Limiter
	baseURL string
	started time.Time
}

// NewHandler creates a new API handler
func NewHandler(trackerSvc *tracker.Service, limiter *ratelimit.Limiter, baseURL string) *Handler {
	return &Handler{
		tracker: trackerSvc,
		limiter: limiter,
		baseURL: strings.TrimRight(baseURL, "/"),
		started: time.Now(),
	}
}

// GenerateRequest is the request body for QR generation endpoints.
type GenerateRequest struct {
	Data            string `json:"data"`
	Format          string `json:"format"`
	Size            int    `json:"size"`
	FgColor         string `json:"fg_color"`
	BgColor         string `json:"bg_color"`
	ErrorCorrection string `json:"error_correction"`
	Style           string `json:"style"`
	Logo            string `json:"logo,omitempty"`
	LogoSize        int    `json:"logo_size"`
}

func (r *GenerateRequest) applyDefaults() {
	if r.Format == "" {
		r.Format = constant.DefaultFormat
	}
	if r.Size == 0 {
		r.Size = constant.DefaultSize
	}
	if r.FgColor == "" {
		r.FgColor = constant.DefaultFgColor
	}
	if r.BgColor == "" {
		r.BgColor = constant.DefaultBgColor
	}
	if r.ErrorCorrection == "" {
		r.ErrorCorrection = constant.DefaultECLevel
	}
	if r.Style == "" {
		r.Style = constant.DefaultStyle
	}
	if r.LogoSize == 0 {
		r.LogoSize = constant.DefaultLogoSize
	}
}

// QrResponse is the JSON body of a successful generation.
type QrResponse struct {
	ImageBase64 string `json:"image_base64"`
	ShareURL    string `json:"share_url"`
	Format      string `json:"format"`
	Size        int    `json:"size"`
	Data        string `json:"data"`
}

// renderInputs is a fully validated render request.
type renderInputs struct {
	data   string
	format render.Format
	opts   render.Options
	logo   *render.Logo
	level  qrcode.Level
}

// validateGenerate applies the strict single-item validation rules.
func validateGenerate(req *GenerateRequest) (*renderInputs, *apiError) {
	if req.Data == "" {
		return nil, newAPIError(http.StatusBadRequest, constant.CodeEmptyData, "Data field cannot be empty")
	}
	if req.Size < constant.MinQRSize || req.Size > constant.MaxQRSize {
		return nil, newAPIError(http.StatusBadRequest, constant.CodeInvalidSize,
			fmt.Sprintf("Size must be between %d and %d", constant.MinQRSize, constant.MaxQRSize))
	}
	if req.LogoSize < constant.MinLogoSize || req.LogoSize > constant.MaxLogoSize {
		return nil, newAPIError(http.StatusBadRequest, constant.CodeInvalidLogoSize,
			fmt.Sprintf("logo_size must be between %d and %d (percentage)", constant.MinLogoSize, constant.MaxLogoSize))
	}

	var logo *render.Logo
	if req.Logo != "" {
		data, err := render.DecodeLogoPayload(req.Logo)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, constant.CodeInvalidLogo, "Invalid base64 logo data")
		}
		if len(data) > constant.MaxLogoBytes {
			return nil, newAPIError(http.StatusBadRequest, constant.CodeLogoTooLarge, "Logo image must be under 512KB")
		}
		logo = &render.Logo{Data: data, SizePercent: req.LogoSize}
	}

	fg, err := render.ParseColor(req.FgColor)
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, constant.CodeInvalidFgColor, "Invalid foreground color")
	}
	bg, err := render.ParseColor(req.BgColor)
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, constant.CodeInvalidBgColor, "Invalid background color")
	}

	format, err := render.ParseFormat(req.Format)
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, constant.CodeInvalidFormat, "Unsupported format. Use 'png', 'svg', or 'pdf'")
	}
	if logo != nil && format == render.FormatPDF {
		return nil, newAPIError(http.StatusBadRequest, constant.CodeUnsupportedCombination, "Logo overlay is not supported for PDF output")
	}

	return &renderInputs{
		data:   req.Data,
		format: format,
		opts: render.Options{
			Size:       req.Size,
			Foreground: fg,
			Background: bg,
			Style:      render.ParseStyle(req.Style),
		},
		logo:  logo,
		level: qrcode.LevelFor(qrcode.ParseLevel(req.ErrorCorrection), logo != nil),
	}, nil
}

// doRender encodes and renders a validated request.
func doRender(in *renderInputs) (*render.Output, *apiError) {
	matrix, err := qrcode.Encode(in.data, in.level)
	if err != nil {
		return nil, newAPIError(http.StatusInternalServerError, constant.CodeGenerationFailed, "QR code generation failed")
	}

	out, err := render.Render(matrix, in.opts, in.logo, in.format)
	if err != nil {
		switch {
		case errors.Is(err, render.ErrLogoDecode):
			return nil, newAPIError(http.StatusBadRequest, constant.CodeInvalidLogo, "Logo image could not be decoded")
		case errors.Is(err, render.ErrLogoUnsupported):
			return nil, newAPIError(http.StatusBadRequest, constant.CodeUnsupportedCombination, "Logo overlay is not supported for PDF output")
		default:
			return nil, newAPIError(http.StatusInternalServerError, constant.CodeGenerationFailed, "QR code generation failed")
		}
	}
	return out, nil
}

// buildShareURL encodes the full generation request into a stateless
// /qr/view link.
func (h *Handler) buildShareURL(data string, size int, fg, bg, format, style string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(data))
	return fmt.Sprintf("%s%s?data=%s&size=%d&fg=%s&bg=%s&format=%s&style=%s",
		h.baseURL, constant.RouteView,
		url.QueryEscape(encoded), size,
		url.QueryEscape(strings.ReplaceAll(fg, "#", "")),
		url.QueryEscape(strings.ReplaceAll(bg, "#", "")),
		format, style)
}

func dataURI(out *render.Output) string {
	return fmt.Sprintf("data:%s;base64,%s", out.MIME, base64.StdEncoding.EncodeToString(out.Data))
}

// GenerateQR handles POST /api/v1/qr/generate.
func (h *Handler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		appLogger.CtxWarn(ctx, "Error decoding generate request", appLogger.LoggerInfo{
			ContextFunction: constant.CtxGenerateQR,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAPIDecodeRequest,
				Message: err.Error(),
				Type:    constant.ErrTypeAPI,
			},
		})
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidData, "Invalid request format"))
		return
	}
	req.applyDefaults()

	in, apiErr := validateGenerate(&req)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	out, apiErr := doRender(in)
	if apiErr != nil {
		appLogger.CtxError(ctx, "QR generation failed", appLogger.LoggerInfo{
			ContextFunction: constant.CtxGenerateQR,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAPIRenderError,
				Message: apiErr.message,
				Type:    constant.ErrTypeAPI,
			},
			Data: map[string]interface{}{
				constant.DataFormat: req.Format,
				constant.DataSize:   req.Size,
				constant.DataStyle:  req.Style,
			},
		})
		writeAPIError(w, apiErr)
		return
	}

	appLogger.CtxInfo(ctx, "QR code generated", appLogger.LoggerInfo{
		ContextFunction: constant.CtxGenerateQR,
		Data: map[string]interface{}{
			constant.DataFormat: req.Format,
			constant.DataSize:   req.Size,
			constant.DataStyle:  req.Style,
			constant.DataLogo:   req.Logo != "",
		},
	})

	WriteJSON(w, QrResponse{
		ImageBase64: dataURI(out),
		ShareURL:    h.buildShareURL(req.Data, req.Size, req.FgColor, req.BgColor, req.Format, req.Style),
		Format:      req.Format,
		Size:        req.Size,
		Data:        req.Data,
	}, http.StatusOK)
}

// DecodeRequest is the body of the decode endpoint.
type DecodeRequest struct {
	Image string `json:"image"`
}

// DecodeResponse carries the text recovered from an uploaded symbol.
type DecodeResponse struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// DecodeQR handles POST /api/v1/qr/decode.
func (h *Handler) DecodeQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidImage, "Image field must be base64 image data"))
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidImage, "Invalid base64 image data"))
		return
	}

	text, err := qrcode.Decode(imageBytes)
	if err != nil {
		if errors.Is(err, qrcode.ErrInvalidImage) {
			writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidImage, "Failed to load image"))
			return
		}
		appLogger.CtxInfo(ctx, "No QR code found in uploaded image", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDecodeQR,
		})
		writeAPIError(w, newAPIError(http.StatusUnprocessableEntity, constant.CodeDecodeFailed, "No QR code found in image"))
		return
	}

	WriteJSON(w, DecodeResponse{Data: text, Format: "qr"}, http.StatusOK)
}

// BatchGenerateRequest wraps up to MaxBatchItems generation requests.
type BatchGenerateRequest struct {
	Items []GenerateRequest `json:"items"`
}

// BatchItemResponse is one successful batch result with its original
// position.
type BatchItemResponse struct {
	Index int `json:"index"`
	QrResponse
}

// BatchQrResponse is the body of a batch response. Failed items are
// dropped; Total counts the survivors.
type BatchQrResponse struct {
	Items []BatchItemResponse `json:"items"`
	Total int                 `json:"total"`
}

// BatchQR handles POST /api/v1/qr/batch. Item failures are skipped
// rather than failing the batch; malformed colors fall back to the
// defaults and sizes are clamped.
func (h *Handler) BatchQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BatchGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidData, "Invalid request format"))
		return
	}
	if len(req.Items) == 0 {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeEmptyBatch, "Items array cannot be empty"))
		return
	}
	if len(req.Items) > constant.MaxBatchItems {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeBatchTooLarge,
			fmt.Sprintf("Maximum %d items per batch", constant.MaxBatchItems)))
		return
	}

	items := make([]BatchItemResponse, 0, len(req.Items))
	for i := range req.Items {
		item := req.Items[i]
		item.applyDefaults()

		in, ok := lenientInputs(&item)
		if !ok {
			continue
		}
		out, apiErr := doRender(in)
		if apiErr != nil {
			continue
		}

		items = append(items, BatchItemResponse{
			Index: i,
			QrResponse: QrResponse{
				ImageBase64: dataURI(out),
				ShareURL:    h.buildShareURL(item.Data, in.opts.Size, item.FgColor, item.BgColor, in.format.String(), item.Style),
				Format:      in.format.String(),
				Size:        in.opts.Size,
				Data:        item.Data,
			},
		})
	}

	appLogger.CtxInfo(ctx, "Batch generated", appLogger.LoggerInfo{
		ContextFunction: constant.CtxBatchQR,
		Data: map[string]interface{}{
			constant.DataItems:     len(req.Items),
			constant.DataGenerated: len(items),
		},
	})

	WriteJSON(w, BatchQrResponse{Items: items, Total: len(items)}, http.StatusOK)
}

// lenientInputs converts a batch item with the forgiving rules: bad
// colors fall back to defaults, sizes clamp into range, unknown
// formats render as PNG, and unusable logos are dropped silently.
func lenientInputs(item *GenerateRequest) (*renderInputs, bool) {
	if item.Data == "" {
		return nil, false
	}

	fg, err := render.ParseColor(item.FgColor)
	if err != nil {
		fg = render.Color{0, 0, 0, 255}
	}
	bg, err := render.ParseColor(item.BgColor)
	if err != nil {
		bg = render.Color{255, 255, 255, 255}
	}

	size := item.Size
	if size < constant.MinQRSize {
		size = constant.MinQRSize
	}
	if size > constant.MaxQRSize {
		size = constant.MaxQRSize
	}

	format, err := render.ParseFormat(item.Format)
	if err != nil {
		format = render.FormatPNG
	}

	var logo *render.Logo
	if item.Logo != "" && format != render.FormatPDF {
		if data, err := render.DecodeLogoPayload(item.Logo); err == nil && len(data) <= constant.MaxLogoBytes {
			logo = &render.Logo{Data: data, SizePercent: item.LogoSize}
		}
	}

	return &renderInputs{
		data:   item.Data,
		format: format,
		opts: render.Options{
			Size:       size,
			Foreground: fg,
			Background: bg,
			Style:      render.ParseStyle(item.Style),
		},
		logo:  logo,
		level: qrcode.LevelFor(qrcode.ParseLevel(item.ErrorCorrection), logo != nil),
	}, true
}

// TemplateRequest is the union body of the template endpoint; each
// template type reads its own fields.
type TemplateRequest struct {
	// wifi
	SSID       string `json:"ssid"`
	Password   string `json:"password"`
	Encryption string `json:"encryption"`
	Hidden     bool   `json:"hidden"`
	// vcard
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Org   string `json:"org"`
	Title string `json:"title"`
	// url (URL doubles as the vcard website field)
	URL         string `json:"url"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	// shared rendering knobs
	Format string `json:"format"`
	Size   int    `json:"size"`
	Style  string `json:"style"`
}

// TemplateQR handles POST /api/v1/qr/template/{templateType}.
func (h *Handler) TemplateQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	templateType := chi.URLParam(r, "templateType")

	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidData, "Invalid request format"))
		return
	}

	var data string
	switch templateType {
	case "wifi":
		if req.SSID == "" {
			writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeMissingSSID, "Missing 'ssid' field"))
			return
		}
		data = qrcode.WiFi{
			SSID:       req.SSID,
			Password:   req.Password,
			Encryption: req.Encryption,
			Hidden:     req.Hidden,
		}.Data()
	case "vcard":
		if req.Name == "" {
			writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeMissingName, "Missing 'name' field"))
			return
		}
		data = qrcode.VCard{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
			Org:   req.Org,
			Title: req.Title,
			URL:   req.URL,
		}.Data()
	case "url":
		if req.URL == "" {
			writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeMissingURL, "Missing 'url' field"))
			return
		}
		data = qrcode.CampaignURL(req.URL, req.UTMSource, req.UTMMedium, req.UTMCampaign)
	default:
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidTemplate,
			fmt.Sprintf("Unknown template type: '%s'. Available: wifi, vcard, url", templateType)))
		return
	}

	gen := GenerateRequest{
		Data:   data,
		Format: req.Format,
		Size:   req.Size,
		Style:  req.Style,
	}
	gen.applyDefaults()

	in, ok := lenientInputs(&gen)
	if !ok {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeEmptyData, "Template produced no data"))
		return
	}
	out, apiErr := doRender(in)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	appLogger.CtxInfo(ctx, "Template QR generated", appLogger.LoggerInfo{
		ContextFunction: constant.CtxTemplateQR,
		Data: map[string]interface{}{
			constant.DataTemplateType: templateType,
			constant.DataFormat:       in.format.String(),
			constant.DataSize:         in.opts.Size,
		},
	})

	WriteJSON(w, QrResponse{
		ImageBase64: dataURI(out),
		ShareURL:    h.buildShareURL(data, in.opts.Size, constant.DefaultFgColor, constant.DefaultBgColor, in.format.String(), gen.Style),
		Format:      in.format.String(),
		Size:        in.opts.Size,
		Data:        data,
	}, http.StatusOK)
}

// ViewQR handles GET /qr/view: a stateless share link that renders the
// QR straight from its query parameters. PNG and SVG only; view links
// are meant for inline display.
func (h *Handler) ViewQR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data := q.Get("data")
	if data == "" {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidData, "Missing 'data' parameter"))
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidData, "Invalid base64 data"))
		return
	}

	size := constant.DefaultSize
	if s := q.Get("size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			size = parsed
		}
	}
	if size < constant.MinQRSize {
		size = constant.MinQRSize
	}
	if size > constant.MaxQRSize {
		size = constant.MaxQRSize
	}

	fg, err := render.ParseColor("#" + nonEmpty(q.Get("fg"), "000000"))
	if err != nil {
		fg = render.Color{0, 0, 0, 255}
	}
	bg, err := render.ParseColor("#" + nonEmpty(q.Get("bg"), "FFFFFF"))
	if err != nil {
		bg = render.Color{255, 255, 255, 255}
	}

	format := render.FormatPNG
	if q.Get("format") == "svg" {
		format = render.FormatSVG
	}

	in := &renderInputs{
		data:   string(decoded),
		format: format,
		opts: render.Options{
			Size:       size,
			Foreground: fg,
			Background: bg,
			Style:      render.ParseStyle(q.Get("style")),
		},
		level: qrcode.ParseLevel(constant.DefaultECLevel),
	}

	out, apiErr := doRender(in)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	w.Header().Set("Content-Type", out.MIME)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// CreateTrackedRequest is the body for tracked QR creation.
type CreateTrackedRequest struct {
	TargetURL       string `json:"target_url"`
	ShortCode       string `json:"short_code,omitempty"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	Format          string `json:"format"`
	Size            int    `json:"size"`
	FgColor         string `json:"fg_color"`
	BgColor         string `json:"bg_color"`
	ErrorCorrection string `json:"error_correction"`
	Style           string `json:"style"`
}

// ScanEventResponse is one analytics row.
type ScanEventResponse struct {
	ID        string `json:"id"`
	ScannedAt string `json:"scanned_at"`
	UserAgent string `json:"user_agent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// TrackedQrResponse is the creation response. ManageToken appears here
// and nowhere else.
type TrackedQrResponse struct {
	ID          string     `json:"id"`
	QRID        string     `json:"qr_id"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	TargetURL   string     `json:"target_url"`
	ManageToken string     `json:"manage_token"`
	ManageURL   string     `json:"manage_url"`
	ScanCount   int64      `json:"scan_count"`
	ExpiresAt   *string    `json:"expires_at"`
	CreatedAt   string     `json:"created_at"`
	QR          QrResponse `json:"qr"`
}

// TrackedStatsResponse is the analytics response.
type TrackedStatsResponse struct {
	ID          string              `json:"id"`
	ShortCode   string              `json:"short_code"`
	TargetURL   string              `json:"target_url"`
	ScanCount   int64               `json:"scan_count"`
	ExpiresAt   *string             `json:"expires_at"`
	CreatedAt   string              `json:"created_at"`
	RecentScans []ScanEventResponse `json:"recent_scans"`
}

// CreateTrackedQR handles POST /api/v1/qr/tracked.
func (h *Handler) CreateTrackedQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Tracked creation has its own, tighter window on top of the
	// general per-IP limit.
	res := h.limiter.Check("ip:tracked:"+clientIP(r), constant.RateLimitTracked)
	if !res.Allowed {
		writeRateLimited(w, res)
		return
	}
	setRateLimitHeaders(w, res)

	var req CreateTrackedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidData, "Invalid request format"))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidExpiry, "expires_at must be an RFC3339 timestamp"))
			return
		}
		utc := parsed.UTC()
		expiresAt = &utc
	}

	gen := GenerateRequest{
		Format:          req.Format,
		Size:            req.Size,
		FgColor:         req.FgColor,
		BgColor:         req.BgColor,
		ErrorCorrection: req.ErrorCorrection,
		Style:           req.Style,
	}
	gen.applyDefaults()

	fg, err := render.ParseColor(gen.FgColor)
	if err != nil {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidFgColor, "Invalid foreground color"))
		return
	}
	bg, err := render.ParseColor(gen.BgColor)
	if err != nil {
		writeAPIError(w, newAPIError(http.StatusBadRequest, constant.CodeInvalidBgColor, "Invalid background color"))
		return
	}

	// The short code has to exist before rendering: the QR encodes the
	// redirect URL.
	shortCode := req.ShortCode
	if shortCode == "" {
		shortCode = tracker.NewShortCode()
	}
	shortURL := fmt.Sprintf("%s/r/%s", h.baseURL, shortCode)

	format, err := render.ParseFormat(gen.Format)
	if err != nil {
		format = render.FormatPNG
	}

	size := gen.Size
	if size < constant.MinQRSize {
		size = constant.MinQRSize
	}
	if size > constant.MaxQRSize {
		size = constant.MaxQRSize
	}

	in := &renderInputs{
		data:   shortURL,
		format: format,
		opts: render.Options{
			Size:       size,
			Foreground: fg,
			Background: bg,
			Style:      render.ParseStyle(gen.Style),
		},
		level: qrcode.ParseLevel(gen.ErrorCorrection),
	}
	out, apiErr := doRender(in)
	if apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	tracked, token, err := h.tracker.Create(ctx, tracker.CreateParams{
		TargetURL: req.TargetURL,
		ShortCode: shortCode,
		ExpiresAt: expiresAt,
		Image: tracker.QRImage{
			Data:            out.Data,
			MIME:            out.MIME,
			Format:          format.String(),
			Size:            size,
			FgColor:         gen.FgColor,
			BgColor:         gen.BgColor,
			ErrorCorrection: gen.ErrorCorrection,
			Style:           gen.Style,
		},
	})
	if err != nil {
		writeAPIError(w, trackedErrToAPI(err))
		return
	}

	manageURL := fmt.Sprintf("%s%s/%s?key=%s", h.baseURL, constant.RouteTracked, tracked.ID, token)

	appLogger.CtxInfo(ctx, "Tracked QR created via API", appLogger.LoggerInfo{
		ContextFunction: constant.CtxTrackedAPI,
		Data: map[string]interface{}{
			constant.DataTrackedID: tracked.ID,
			constant.DataShortCode: tracked.ShortCode,
		},
	})

	WriteJSON(w, TrackedQrResponse{
		ID:          tracked.ID,
		QRID:        tracked.Image.ID,
		ShortCode:   tracked.ShortCode,
		ShortURL:    shortURL,
		TargetURL:   tracked.TargetURL,
		ManageToken: token,
		ManageURL:   manageURL,
		ScanCount:   0,
		ExpiresAt:   formatTimePtr(tracked.ExpiresAt),
		CreatedAt:   tracked.CreatedAt.Format(time.RFC3339),
		QR: QrResponse{
			ImageBase64: dataURI(out),
			ShareURL:    shortURL,
			Format:      format.String(),
			Size:        size,
			Data:        "tracked",
		},
	}, http.StatusCreated)
}

func trackedErrToAPI(err error) *apiError {
	switch {
	case errors.Is(err, tracker.ErrEmptyTargetURL), errors.Is(err, tracker.ErrInvalidTargetURL):
		return newAPIError(http.StatusBadRequest, constant.CodeInvalidTargetURL, err.Error())
	case errors.Is(err, tracker.ErrInvalidShortCode):
		return newAPIError(http.StatusBadRequest, constant.CodeInvalidShortCode, err.Error())
	case errors.Is(err, tracker.ErrShortCodeTaken):
		return newAPIError(http.StatusConflict, constant.CodeShortCodeTaken, "Short code is already taken")
	case errors.Is(err, tracker.ErrNotFound):
		return newAPIError(http.StatusNotFound, constant.CodeNotFound, "Tracked QR code not found")
	case errors.Is(err, tracker.ErrInvalidToken):
		return newAPIError(http.StatusUnauthorized, constant.CodeInvalidToken, "Invalid manage token")
	case errors.Is(err, tracker.ErrExpired):
		return newAPIError(http.StatusGone, constant.CodeExpired, "This short URL has expired")
	default:
		return newAPIError(http.StatusInternalServerError, constant.CodeInternalError, "Internal server error")
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// manageToken pulls the per-resource token from the Authorization
// header (Bearer) or the ?key= query parameter.
func manageToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("key")
}

// RedirectShortURL handles GET /r/{code}: resolves the short code,
// records the scan, and redirects to the target.
func (h *Handler) RedirectShortURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")

	tracked, err := h.tracker.Resolve(ctx, code, tracker.ScanMeta{
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	})
	if err != nil {
		writeAPIError(w, trackedErrToAPI(err))
		return
	}

	appLogger.CtxInfo(ctx, "Redirecting scan", appLogger.LoggerInfo{
		ContextFunction: constant.CtxRedirect,
		Data: map[string]interface{}{
			constant.DataShortCode: code,
			constant.DataTargetURL: tracked.TargetURL,
			constant.DataUserAgent: r.UserAgent(),
			constant.DataReferrer:  r.Referer(),
		},
	})

	http.Redirect(w, r, tracked.TargetURL, http.StatusTemporaryRedirect)
}

// TrackedStats handles GET /api/v1/qr/tracked/{id}.
func (h *Handler) TrackedStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	tracked, scans, err := h.tracker.Stats(ctx, id, manageToken(r))
	if err != nil {
		writeAPIError(w, trackedErrToAPI(err))
		return
	}

	events := make([]ScanEventResponse, 0, len(scans))
	for _, s := range scans {
		events = append(events, ScanEventResponse{
			ID:        s.ID,
			ScannedAt: s.ScannedAt.Format(time.RFC3339),
			UserAgent: s.UserAgent,
			Referrer:  s.Referrer,
		})
	}

	WriteJSON(w, TrackedStatsResponse{
		ID:          tracked.ID,
		ShortCode:   tracked.ShortCode,
		TargetURL:   tracked.TargetURL,
		ScanCount:   tracked.ScanCount,
		ExpiresAt:   formatTimePtr(tracked.ExpiresAt),
		CreatedAt:   tracked.CreatedAt.Format(time.RFC3339),
		RecentScans: events,
	}, http.StatusOK)
}

// TrackedImage handles GET /api/v1/qr/tracked/{id}/image: serves the
// stored render.
func (h *Handler) TrackedImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	tracked, err := h.tracker.Authorize(ctx, id, manageToken(r))
	if err != nil {
		writeAPIError(w, trackedErrToAPI(err))
		return
	}

	w.Header().Set("Content-Type", tracked.Image.MIME)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(tracked.Image.Data)
}

// DeleteTrackedQR handles DELETE /api/v1/qr/tracked/{id}.
func (h *Handler) DeleteTrackedQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.tracker.Delete(ctx, id, manageToken(r)); err != nil {
		writeAPIError(w, trackedErrToAPI(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthResponse is the health endpoint body.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Healthcheck handles GET /api/v1/health.
func (h *Handler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	appLogger.CtxDebug(r.Context(), constant.MsgHealthcheckRequest, appLogger.LoggerInfo{
		ContextFunction: constant.CtxHealthcheck,
	})

	WriteJSON(w, HealthResponse{
		Status:        "ok",
		Version:       constant.AppVersion,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}, http.StatusOK)
}

// clientIP extracts the caller address for rate limit keys. The RealIP
// middleware has already folded proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// withRateLimit enforces the general per-IP window on the stateless
// endpoints and attaches the rate limit headers on success.
func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := h.limiter.Check("ip:"+clientIP(r), constant.RateLimitGeneral)
		if !res.Allowed {
			appLogger.CtxWarn(r.Context(), "Rate limit exceeded", appLogger.LoggerInfo{
				ContextFunction: constant.CtxRateLimit,
				Data: map[string]interface{}{
					constant.DataIP:    clientIP(r),
					constant.DataLimit: res.Limit,
				},
			})
			writeRateLimited(w, res)
			return
		}
		setRateLimitHeaders(w, res)
		next.ServeHTTP(w, r)
	})
}
