package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/book-courier-backend/internal/checkout"
	"github.com/shinyyama/book-courier-backend/internal/config"
	"github.com/shinyyama/book-courier-backend/internal/handler"
	"github.com/shinyyama/book-courier-backend/internal/identity"
	appmw "github.com/shinyyama/book-courier-backend/internal/middleware"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
	"github.com/shinyyama/book-courier-backend/internal/service"
	"github.com/shinyyama/book-courier-backend/internal/tracking"
	"golang.org/x/time/rate"
)

// Deps are the long-lived collaborators created by the binary. Covers and
// Blurbs may be nil when the matching integration is not configured.
type Deps struct {
	Repos    *repository.Set
	Verifier identity.Verifier
	Provider checkout.Provider
	Covers   service.CoverStore
	Blurbs   service.BlurbWriter
	Tracker  *tracking.Generator
}

type Server struct {
	e *echo.Echo
}

func New(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.AllowedOrigins),
	}))

	timeout := cfg.UpstreamTimeout
	repos := deps.Repos
	if deps.Tracker == nil {
		deps.Tracker = tracking.NewGenerator()
	}

	bookHandler := handler.NewBookHandler(service.NewBookService(repos.Books, deps.Covers, timeout))
	userHandler := handler.NewUserHandler(service.NewUserService(repos.Users, timeout))
	submissionHandler := handler.NewSubmissionHandler(service.NewSubmissionService(repos.NewBooks, repos.Books, deps.Blurbs, timeout))
	orderHandler := handler.NewOrderHandler(service.NewOrderService(repos.Orders, repos.Books, timeout))
	paymentHandler := handler.NewPaymentHandler(service.NewPaymentService(repos.Orders, repos.Payments, deps.Provider, deps.Tracker, service.PaymentConfig{
		Currency:   cfg.CheckoutCurrency,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
		Timeout:    timeout,
	}))

	authMw := appmw.NewAuthMiddleware(deps.Verifier, repos.Users, timeout)
	auth := authMw.RequireAuth
	staff := appmw.RequireRole(model.RoleLibrarian, model.RoleAdmin)
	adminOnly := appmw.RequireRole(model.RoleAdmin)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    cfg.GitSHA,
			"build_time": cfg.BuildTime,
		})
	})

	e.GET("/books", bookHandler.List)
	e.GET("/books/mine", bookHandler.ListMine, auth, staff)
	e.GET("/books/:id", bookHandler.Get)
	e.POST("/books", bookHandler.Create, auth, staff)
	e.PUT("/books/:id", bookHandler.Update, auth, staff)
	e.DELETE("/books/:id", bookHandler.Delete, auth, adminOnly)
	e.POST("/books/:id/cover", bookHandler.UploadCover, auth, staff)

	e.POST("/users", userHandler.Login, auth)
	e.GET("/users/me", userHandler.Me, auth)
	e.GET("/users", userHandler.List, auth, adminOnly)
	e.PATCH("/users/:id/role", userHandler.UpdateRole, auth, adminOnly)

	e.POST("/new-books", submissionHandler.Submit, auth, staff)
	e.GET("/new-books", submissionHandler.List, auth, staff)
	e.PATCH("/new-books/:id/status", submissionHandler.Review, auth, adminOnly)
	e.DELETE("/new-books/:id", submissionHandler.Delete, auth, staff)
	e.POST("/new-books/:id/blurb", submissionHandler.DraftBlurb, auth, staff)

	e.POST("/orders", orderHandler.Create, auth)
	e.GET("/orders", orderHandler.ListMine, auth)
	e.GET("/orders/librarian", orderHandler.ListForLibrarian, auth, staff)
	e.GET("/orders/:id", orderHandler.Get, auth)
	e.PATCH("/orders/cancel/:id", orderHandler.Cancel, auth)
	e.PATCH("/orders/:id/delivery", orderHandler.UpdateDelivery, auth, staff)

	e.POST("/create-checkout-session", paymentHandler.CreateCheckout, auth, checkoutLimiter(cfg.CheckoutRateLimit))
	e.PATCH("/payment-success", paymentHandler.ConfirmSession)
	e.GET("/payments", paymentHandler.List, auth)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.e
}

// allowOrigin accepts localhost on any port plus any host ending in one of suffixes.
func allowOrigin(suffixes []string) func(origin string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		for _, suffix := range suffixes {
			suffix = strings.TrimSpace(suffix)
			if suffix != "" && strings.HasSuffix(host, suffix) {
				return true, nil
			}
		}
		return false, nil
	}
}

// checkoutLimiter throttles session creation per caller. Runs after auth so the
// uid is available; falls back to the client IP.
func checkoutLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 5
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     max(1, int(perSecond*2)),
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if uid, _ := c.Get("uid").(string); uid != "" {
				return "uid:" + uid, nil
			}
			return "ip:" + c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate_limited", "too many checkout attempts"))
		},
	})
}
