package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers are the endpoints the storefront API serves
type Handlers struct {
	System   *handler.SystemHandler
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Checkout *handler.CheckoutHandler
}

// EngineConfig holds everything the middleware stack needs
type EngineConfig struct {
	ServiceName    string
	Logger         *zap.Logger
	TrustedProxies []string

	CORS        middleware.CORSConfig
	Security    middleware.SecurityConfig
	MaxBodySize int64

	TracingEnabled   bool
	ProfilingEnabled bool
	Metrics          *middleware.HTTPMetrics

	JWT middleware.JWTMiddlewareConfig
	// AuthLimiter throttles /login and /signup; nil disables it
	AuthLimiter *middleware.RateLimiter

	UploadRequiresAuth bool
}

// NewEngine builds the gin engine with the global middleware stack and the full route table
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID
	// 2. Recovery
	// 3. Request logging
	// 4. Tracing (plus span enrichment and profiler labels)
	// 5. Prometheus metrics
	// 6. CORS
	// 7. Security headers
	// 8. Body limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled))
	if cfg.TracingEnabled {
		engine.Use(middleware.SpanEnricher())
	}
	engine.Use(middleware.ProfilingLabels(cfg.ProfilingEnabled))
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware())
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.Secure(cfg.Security))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	r := NewRouter(engine)
	for _, group := range routeGroups(cfg, h) {
		r.Register(group)
	}
	r.Setup()

	return engine
}

func routeGroups(cfg EngineConfig, h Handlers) []*DomainGroup {
	requireAuth := middleware.JWTAuth(cfg.JWT)
	optionalAuth := middleware.OptionalJWTAuth(cfg.JWT)

	var groups []*DomainGroup

	if h.System != nil {
		groups = append(groups, NewDomainGroup("system", "").
			GET("/", h.System.Root).
			GET("/health", h.System.Health))
	}

	if h.Auth != nil {
		throttled := func(next gin.HandlerFunc) []gin.HandlerFunc {
			if cfg.AuthLimiter == nil {
				return []gin.HandlerFunc{next}
			}
			return []gin.HandlerFunc{middleware.RateLimit(cfg.AuthLimiter), next}
		}
		groups = append(groups, NewDomainGroup("auth", "").
			POST("/signup", throttled(h.Auth.Signup)...).
			POST("/login", throttled(h.Auth.Login)...).
			POST("/refresh", h.Auth.Refresh).
			POST("/logout", requireAuth, h.Auth.Logout).
			GET("/me", requireAuth, h.Auth.Me))
	}

	if h.Product != nil {
		upload := []gin.HandlerFunc{h.Product.Upload}
		if cfg.UploadRequiresAuth {
			upload = []gin.HandlerFunc{requireAuth, h.Product.Upload}
		}
		groups = append(groups, NewDomainGroup("catalog", "").
			POST("/uploadProduct", upload...).
			GET("/product", h.Product.List))
	}

	if h.Checkout != nil {
		groups = append(groups,
			NewDomainGroup("checkout", "").
				POST("/create-checkout-session", optionalAuth, h.Checkout.CreateSession).
				POST("/verify-payment", h.Checkout.VerifyPayment).
				POST("/webhooks/razorpay", h.Checkout.Webhook),
			NewDomainGroup("orders", "/orders").
				Use(requireAuth).
				GET("", h.Checkout.ListOrders).
				GET("/:id", h.Checkout.GetOrder),
		)
	}

	return groups
}
