package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prasetyowira/qrserve/constant"
	"github.com/prasetyowira/qrserve/infrastructure/ratelimit"
)

// ErrorResponse is the JSON body of every API failure. Rate-limited
// responses additionally carry the window state.
type ErrorResponse struct {
	Error          string  `json:"error"`
	Code           string  `json:"code"`
	Status         int     `json:"status"`
	RetryAfterSecs *uint64 `json:"retry_after_secs,omitempty"`
	Limit          *uint64 `json:"limit,omitempty"`
	Remaining      *uint64 `json:"remaining,omitempty"`
}

// apiError pairs an HTTP status with a wire error code. Handlers build
// these and hand them to writeAPIError at the edge.
type apiError struct {
	status  int
	code    string
	message string
}

func newAPIError(status int, code, message string) *apiError {
	return &apiError{status: status, code: code, message: message}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeAPIError(w http.ResponseWriter, e *apiError) {
	WriteJSON(w, ErrorResponse{
		Error:  e.message,
		Code:   e.code,
		Status: e.status,
	}, e.status)
}

// setRateLimitHeaders attaches the window state to a response so
// clients can pace themselves before hitting the limit.
func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	w.Header().Set(constant.HeaderRateLimitLimit, strconv.FormatUint(res.Limit, 10))
	w.Header().Set(constant.HeaderRateLimitRemaining, strconv.FormatUint(res.Remaining, 10))
}

func writeRateLimited(w http.ResponseWriter, res ratelimit.Result) {
	setRateLimitHeaders(w, res)
	w.Header().Set(constant.HeaderRetryAfter, strconv.FormatUint(res.RetryAfterSecs, 10))
	retry := res.RetryAfterSecs
	limit := res.Limit
	remaining := res.Remaining
	WriteJSON(w, ErrorResponse{
		Error:          "Rate limit exceeded. Try again later.",
		Code:           constant.CodeRateLimited,
		Status:         http.StatusTooManyRequests,
		RetryAfterSecs: &retry,
		Limit:          &limit,
		Remaining:      &remaining,
	}, http.StatusTooManyRequests)
}
