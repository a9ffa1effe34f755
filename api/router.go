package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appmw "github.com/prasetyowira/qrserve/api/middleware"
	"github.com/prasetyowira/qrserve/constant"
	appLogger "github.com/prasetyowira/qrserve/infrastructure/logger"
)

// Router represents the application router
type Router struct {
	handler *Handler
	router  *chi.Mux
}

// NewRouter creates a new router
func NewRouter(handler *Handler) *Router {
	r := chi.NewRouter()

	// Middleware setup
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(appmw.RequestLogger())

	return &Router{
		handler: handler,
		router:  r,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() {
	appLogger.Info(constant.MsgSettingUpRoutes, appLogger.LoggerInfo{
		ContextFunction: constant.CtxRouter,
	})

	h := r.handler

	// Generation endpoints share the general per-IP window.
	r.router.Group(func(g chi.Router) {
		g.Use(h.withRateLimit)
		g.Post(constant.RouteGenerate, h.GenerateQR)
		g.Post(constant.RouteDecode, h.DecodeQR)
		g.Post(constant.RouteBatch, h.BatchQR)
		g.Post(constant.RouteTemplate, h.TemplateQR)
	})

	// Tracked QR management. Creation applies its own tighter window
	// inside the handler.
	r.router.Post(constant.RouteTracked, h.CreateTrackedQR)
	r.router.Get(constant.RouteTrackedByID, h.TrackedStats)
	r.router.Get(constant.RouteTrackedImage, h.TrackedImage)
	r.router.Delete(constant.RouteTrackedByID, h.DeleteTrackedQR)

	// Public routes
	r.router.Get(constant.RouteView, h.ViewQR)
	r.router.Get(constant.RouteRedirect, h.RedirectShortURL)

	// Healthcheck
	r.router.Get(constant.RouteHealthcheck, h.Healthcheck)
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
