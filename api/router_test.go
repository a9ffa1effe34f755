package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/prasetyowira/qrserve/constant"
)

func TestNewRouter(t *testing.T) {
	// Arrange
	_, handler := newTestRouter(t)

	// Act
	router := NewRouter(handler)

	// Assert
	assert.NotNil(t, router)
	assert.Equal(t, handler, router.handler)
	assert.IsType(t, &chi.Mux{}, router.router)
}

func TestRouter_SetupRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	// Unknown routes fall through to 404.
	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Generation endpoints are POST-only.
	req = httptest.NewRequest("GET", constant.RouteGenerate, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	// Every request carries a request ID header.
	req = httptest.NewRequest("GET", constant.RouteHealthcheck, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(constant.HeaderRequestID))
}
