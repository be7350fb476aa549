package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/smallbiznis/membership/internal/auth/domain"
	"github.com/smallbiznis/membership/internal/auth/token"
	"github.com/smallbiznis/membership/internal/authorization"
	"github.com/smallbiznis/membership/internal/config"
	customerdomain "github.com/smallbiznis/membership/internal/customer/domain"
	"github.com/smallbiznis/membership/internal/observability"
	obsmiddleware "github.com/smallbiznis/membership/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/membership/internal/observability/metrics"
	obstracing "github.com/smallbiznis/membership/internal/observability/tracing"
	"github.com/smallbiznis/membership/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Logger:          log,
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(log, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	validate     *validator.Validate
	authsvc      authdomain.Service
	customerSvc  customerdomain.Service
	authzSvc     authorization.Service
	tokens       *token.Issuer
	loginLimiter *ratelimit.LoginLimiter
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Authsvc      authdomain.Service
	CustomerSvc  customerdomain.Service
	AuthzSvc     authorization.Service
	Tokens       *token.Issuer
	LoginLimiter *ratelimit.LoginLimiter `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		validate:     newValidator(),
		authsvc:      p.Authsvc,
		customerSvc:  p.CustomerSvc,
		authzSvc:     p.AuthzSvc,
		tokens:       p.Tokens,
		loginLimiter: p.LoginLimiter,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerCustomerRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/login", s.Login)
	auth.POST("/register", s.Register)
	auth.GET("/check-email/:email", s.CheckEmail)
	auth.GET("/me", s.BearerAuth(), s.Me)
}

func (s *Server) registerCustomerRoutes() {
	customers := s.engine.Group("/api/customers", s.BearerAuth())

	view := s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView)
	customers.GET("", view, s.ListCustomers)
	customers.GET("/with-subscriptions", view, s.ListCustomersWithSubscriptions)
	customers.GET("/check-document/:document", view, s.CheckCustomerDocument)
	customers.GET("/check-email/:email", view, s.CheckCustomerEmail)
	customers.GET("/:id", view, s.GetCustomerByID)

	customers.POST("", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerCreate), s.CreateCustomer)
	customers.PUT("/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerUpdate), s.UpdateCustomer)
	customers.DELETE("/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerDelete), s.DeleteCustomer)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.BearerAuth())

	admin.GET("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserList), s.ListUsers)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
