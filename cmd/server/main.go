package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"price-tracker-web/internal/client"
	"price-tracker-web/internal/config"
	"price-tracker-web/internal/models"
	"price-tracker-web/internal/navigation"
	"price-tracker-web/internal/render"
	"price-tracker-web/internal/services"
	"price-tracker-web/internal/session"
	"price-tracker-web/internal/tracking"
	"price-tracker-web/pkg/sequence"
)

const version = "1.0.0"

type server struct {
	cfg      *config.Config
	search   *services.SearchService
	metrics  *client.Metrics
	redisSeq *sequence.Redis
	limiters *ipLimiters
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	metrics := client.NewMetrics()
	backend := client.New(cfg.BackendURL, cfg.RequestTimeout, metrics)

	var seq sequence.Source = sequence.NewMemory()
	redisSeq := sequence.NewRedis(context.Background(), cfg.RedisURL, cfg.RedisDB, cfg.SequenceTTL)
	if redisSeq != nil {
		seq = redisSeq
		defer redisSeq.Close()
	}

	sessions, err := session.NewRegistry(session.Config{
		Views:          cfg.Views,
		TrackedPerView: cfg.TrackedPerView,
	}, seq, backend, metrics)
	if err != nil {
		log.Fatal("Failed to create session registry: ", err)
	}

	s := &server{
		cfg:      cfg,
		search:   services.NewSearchService(backend, sessions, cfg.SearchPath),
		metrics:  metrics,
		redisSeq: redisSeq,
		limiters: newIPLimiters(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}

	log.Printf("Starting front-end on :%s (backend %s)", cfg.Port, cfg.BackendURL)
	if err := s.router().Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func (s *server) router() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(render.Templates())

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Add request ID middleware
	r.Use(func(c *gin.Context) {
		requestID := fmt.Sprintf("%d", time.Now().UnixNano())
		c.Header("X-Request-ID", requestID)
		start := time.Now()
		c.Next()
		log.Printf("[%s] %s %s - %v - %d",
			requestID, c.Request.Method, c.Request.URL.Path,
			time.Since(start), c.Writer.Status())
	})

	r.Use(s.limiters.middleware())

	r.GET("/health", func(c *gin.Context) {
		health := gin.H{
			"status":  "healthy",
			"service": "price-tracker-web",
			"version": version,
		}

		if s.redisSeq.IsAvailable() {
			health["sequence_store"] = "redis connected"
		} else {
			health["sequence_store"] = "in-process"
		}

		c.JSON(http.StatusOK, health)
	})

	r.GET("/rate-limit/status", func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := s.limiters.get(ip)

		c.JSON(http.StatusOK, gin.H{
			"ip":               ip,
			"limit_per_second": limiter.Limit(),
			"burst_capacity":   limiter.Burst(),
			"tokens_available": limiter.Tokens(),
		})
	})

	r.GET("/sequence/stats", func(c *gin.Context) {
		if !s.redisSeq.IsAvailable() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "redis sequence store not configured",
			})
			return
		}
		c.JSON(http.StatusOK, s.redisSeq.GetStats(c.Request.Context()))
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	r.GET(s.cfg.SearchPath, s.searchPage)
	r.GET("/api/search", s.searchJSON)
	r.POST("/cart/track", s.toggleTrack)

	r.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Price Tracker Web",
			"version":     version,
			"description": "Search front-end for the price tracker",
			"features":    []string{"Server-rendered search", "Windowed pagination", "Optimistic tracking", "Stale response discarding"},
			"endpoints": map[string]string{
				"GET " + s.cfg.SearchPath: "Search page (HTML)",
				"GET /api/search":         "Search view model (JSON)",
				"POST /cart/track":        "Toggle product tracking",
				"GET /health":             "Health check",
				"GET /metrics":            "Prometheus metrics",
				"GET /api/info":           "API information",
			},
			"backend": s.cfg.BackendURL,
		})
	})

	return r
}

// viewID returns the page view ID from the cookie, issuing a new one when
// missing or malformed.
func viewID(c *gin.Context) string {
	id, err := c.Cookie(session.CookieName)
	if err != nil || !session.ValidID(id) {
		id = session.NewID()
	}
	return id
}

func setViewCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, id, 0, "/", "", false, true)
}

func (s *server) searchPage(c *gin.Context) {
	res, err := s.search.Search(c.Request.Context(), viewID(c), c.Request.URL.RawQuery)
	if res.ViewID != "" {
		setViewCookie(c, res.ViewID)
	}
	if errors.Is(err, navigation.ErrStale) {
		c.String(http.StatusConflict, "superseded by a newer search")
		return
	}
	if err != nil {
		log.Printf("Search error: %v", err)
		c.String(http.StatusInternalServerError, "search failed")
		return
	}

	c.HTML(statusFor(res.State), render.SearchTemplate, render.NewPage(s.cfg.SearchPath, res.Filters, res.State))
}

func (s *server) searchJSON(c *gin.Context) {
	res, err := s.search.Search(c.Request.Context(), viewID(c), c.Request.URL.RawQuery)
	if res.ViewID != "" {
		setViewCookie(c, res.ViewID)
	}
	if errors.Is(err, navigation.ErrStale) {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "superseded",
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		log.Printf("Search error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_failed",
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		return
	}

	if res.State.Status == navigation.StatusFailed {
		code := statusFor(res.State)
		c.JSON(code, models.ErrorResponse{
			Error:   client.Kind(res.State.Err) + "_error",
			Code:    code,
			Message: res.State.Reason,
			Details: res.State.Err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"view_id":    res.ViewID,
		"status":     res.State.Status,
		"sequence":   res.State.Seq,
		"view_model": res.State.ViewModel,
	})
}

type toggleRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (s *server) toggleTrack(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Code:    http.StatusBadRequest,
			Message: "product_id is required",
		})
		return
	}

	id, err := c.Cookie(session.CookieName)
	if err != nil {
		id = ""
	}

	out, err := s.search.Toggle(c.Request.Context(), id, req.ProductID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, out)
	case errors.Is(err, services.ErrUnknownView), errors.Is(err, tracking.ErrUnknownProduct):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, tracking.ErrAnonymous):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "login_required",
			Code:    http.StatusUnauthorized,
			Message: out.Notice,
		})
	default:
		// the outcome carries the reverted state and the notice to show
		c.JSON(http.StatusBadGateway, out)
	}
}

func statusFor(st navigation.State) int {
	if st.Status != navigation.StatusFailed {
		return http.StatusOK
	}
	switch client.Kind(st.Err) {
	case "validation":
		return http.StatusBadRequest
	case "network":
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type ipLimiters struct {
	limit rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func newIPLimiters(limit rate.Limit, burst int) *ipLimiters {
	return &ipLimiters{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[ip]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		if limiter, exists = l.limiters[ip]; !exists {
			limiter = rate.NewLimiter(l.limit, l.burst)
			l.limiters[ip] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

func (l *ipLimiters) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := l.get(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests from your IP",
				"retry_after": "1 second",
				"ip":          ip,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
