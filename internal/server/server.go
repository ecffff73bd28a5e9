package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/smallplates/plates/internal/account/domain"
	auditdomain "github.com/smallplates/plates/internal/audit/domain"
	auditservice "github.com/smallplates/plates/internal/audit/service"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	authlocal "github.com/smallplates/plates/internal/auth/local"
	"github.com/smallplates/plates/internal/auth/session"
	"github.com/smallplates/plates/internal/authorization"
	"github.com/smallplates/plates/internal/config"
	cookbookdomain "github.com/smallplates/plates/internal/cookbook/domain"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	guestdomain "github.com/smallplates/plates/internal/guest/domain"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
	"github.com/smallplates/plates/internal/observability"
	obsmiddleware "github.com/smallplates/plates/internal/observability/logger"
	obsmetrics "github.com/smallplates/plates/internal/observability/metrics"
	obstracing "github.com/smallplates/plates/internal/observability/tracing"
	"github.com/smallplates/plates/internal/ratelimit"
	recipedomain "github.com/smallplates/plates/internal/recipe/domain"
	waitlistdomain "github.com/smallplates/plates/internal/waitlist/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
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

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
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
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	authsvc       authdomain.Service
	authHandler   *authlocal.Handler
	sessions      *session.Manager
	genID         *snowflake.Node
	authzSvc      authorization.Service
	auditRepo     auditdomain.Repository
	audit         auditservice.Recorder
	groupSvc      groupdomain.Service
	invitationSvc invitationdomain.Service
	accountSvc    accountdomain.Service
	recipeRepo    recipedomain.Repository
	guestRepo     guestdomain.Repository
	cookbookRepo  cookbookdomain.Repository
	waitlistRepo  waitlistdomain.Repository
	limiter       *ratelimit.CredentialLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	Authsvc       authdomain.Service
	AuthHandler   *authlocal.Handler
	Sessions      *session.Manager
	GenID         *snowflake.Node
	AuthzSvc      authorization.Service
	AuditRepo     auditdomain.Repository
	Audit         auditservice.Recorder
	GroupSvc      groupdomain.Service
	InvitationSvc invitationdomain.Service
	AccountSvc    accountdomain.Service
	RecipeRepo    recipedomain.Repository
	GuestRepo     guestdomain.Repository
	CookbookRepo  cookbookdomain.Repository
	WaitlistRepo  waitlistdomain.Repository
	Limiter       *ratelimit.CredentialLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("http.server"),
		authsvc:       p.Authsvc,
		authHandler:   p.AuthHandler,
		sessions:      p.Sessions,
		genID:         p.GenID,
		authzSvc:      p.AuthzSvc,
		auditRepo:     p.AuditRepo,
		audit:         p.Audit,
		groupSvc:      p.GroupSvc,
		invitationSvc: p.InvitationSvc,
		accountSvc:    p.AccountSvc,
		recipeRepo:    p.RecipeRepo,
		guestRepo:     p.GuestRepo,
		cookbookRepo:  p.CookbookRepo,
		waitlistRepo:  p.WaitlistRepo,
		limiter:       p.Limiter,
	}

	s.registerAuthRoutes()
	s.registerPublicRoutes()
	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.authHandler.Signup)
	auth.POST("/login", s.CredentialRateLimit(), s.authHandler.Login)
	auth.POST("/logout", s.authHandler.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/invitations/group/accept", s.AcceptRateLimit(), s.AcceptInvitation)
	api.DELETE("/users/me", s.CredentialRateLimit(), s.DeleteOwnAccount)
	api.POST("/waitlist", s.JoinWaitlist)
	api.GET("/collect/:token", s.ValidateCollectionToken)
	api.POST("/activations", s.CreateActivation)
	api.POST("/activations/:token/activate", s.Activate)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.AuthRequired())

	api.GET("/users/me/deletion-plan", s.DeletionPlan)

	// -------- Groups --------
	api.POST("/groups", s.CreateGroup)
	api.GET("/groups", s.ListMyGroups)
	api.GET("/groups/:id", s.GetGroup)
	api.GET("/groups/:id/members", s.ListGroupMembers)
	api.DELETE("/groups/:id/members/:userId", s.RemoveGroupMember)
	api.POST("/groups/:id/transfer", s.TransferGroupOwnership)

	// -------- Invitations --------
	api.POST("/groups/:id/invitations", s.CreateInvitation)
	api.GET("/groups/:id/invitations", s.ListPendingInvitations)
	api.DELETE("/invitations/:token", s.CancelInvitation)
	api.POST("/invitations/:token/resend", s.ResendInvitation)

	// -------- Recipes --------
	api.POST("/recipes", s.CreateGuestRecipe)
	api.GET("/recipes", s.ListMyGuestRecipes)
	api.POST("/groups/:id/recipes", s.CreateGroupRecipe)
	api.GET("/groups/:id/recipes", s.ListGroupRecipes)

	// -------- Guests --------
	api.POST("/guests", s.CreateGuest)
	api.GET("/guests", s.ListMyGuests)

	// -------- Cookbooks --------
	api.POST("/cookbooks", s.CreateCookbook)
	api.GET("/cookbooks", s.ListMyCookbooks)
	api.POST("/shipping-addresses", s.CreateShippingAddress)

	// -------- Collection links --------
	api.GET("/collection-link", s.EnsureCollectionLink)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}
