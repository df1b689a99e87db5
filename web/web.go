// Package web provides the blog's HTTP server: it builds every service once
// from the configuration, wires the router and runs the background jobs.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/inkpost/blog/caching"
	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/util/common"
	"github.com/inkpost/blog/util/crypto"
	"github.com/inkpost/blog/web/cache"
	"github.com/inkpost/blog/web/controller"
	"github.com/inkpost/blog/web/job"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/network"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/robfig/cron/v3"
	"go.uber.org/atomic"
	"gorm.io/gorm"
)

//go:embed translation/*
var i18nFS embed.FS

// Server owns every long-lived dependency of the application.
type Server struct {
	cfg *config.Config

	httpServer *http.Server
	listener   net.Listener
	engine     *gin.Engine

	db    *gorm.DB
	redis *cache.Redis

	userService    *service.UserService
	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
	auditService   *service.AuditLogService
	serverService  *service.ServerService

	sessions *session.Manager
	binder   *session.Binder
	throttle *caching.Counter

	ready *atomic.Bool
	cron  *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{cfg: cfg, ready: atomic.NewBool(false), ctx: ctx, cancel: cancel}
}

type cookieKeys struct {
	sessionHash, sessionBlock []byte
	flashHash, flashBlock     []byte
}

// deriveCookieKeys expands the configured secret into independent keys. With
// no secret, cookies only survive until the process restarts.
func deriveCookieKeys(secret string) (*cookieKeys, error) {
	master := []byte(secret)
	if len(master) == 0 {
		logger.Warning("SECRET_KEY is not set, sessions will not survive a restart")
		master = securecookie.GenerateRandomKey(32)
		if master == nil {
			return nil, errors.New("failed to generate secret")
		}
	}

	keys := &cookieKeys{}
	for _, k := range []struct {
		dst     *[]byte
		purpose string
		length  int
	}{
		{&keys.sessionHash, "blog session hash", 64},
		{&keys.sessionBlock, "blog session block", 32},
		{&keys.flashHash, "blog flash hash", 64},
		{&keys.flashBlock, "blog flash block", 32},
	} {
		key, err := crypto.DeriveKey(master, k.purpose, k.length)
		if err != nil {
			return nil, err
		}
		*k.dst = key
	}
	return keys, nil
}

// Init opens the database and Redis and builds services and the router. It
// does not listen; Start does.
func (s *Server) Init() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.db, err = database.Open(s.cfg.Database)
	if err != nil {
		return err
	}
	if s.cfg.AdminEmail != "" {
		if err = database.SeedAdmin(s.db, s.cfg.AdminEmail, s.cfg.AdminPassword); err != nil {
			return err
		}
	}

	s.redis, err = cache.Open(s.ctx, s.cfg.RedisAddr)
	if err != nil {
		return err
	}

	s.userService = service.NewUserService(s.db)
	s.authService = service.NewAuthService(s.userService)
	s.postService = service.NewPostService(s.db)
	s.commentService = service.NewCommentService(s.db)
	s.auditService = service.NewAuditLogService(s.db)
	s.serverService = service.NewServerService()

	keys, err := deriveCookieKeys(s.cfg.Secret)
	if err != nil {
		return err
	}
	s.sessions = session.NewManager(session.NewRedisStore(s.redis.Client()), s.cfg.SessionMaxAge, s.cfg.SessionIdle)
	codec := session.NewCookieCodec(keys.sessionHash, keys.sessionBlock, s.cfg.CookieSecure, s.cfg.SessionMaxAge)
	s.binder = session.NewBinder(s.sessions, codec, s.userService)
	s.throttle = caching.NewCounter(time.Minute)

	s.engine, err = s.initRouter(keys)
	if err != nil {
		return err
	}
	s.ready.Store(true)
	return nil
}

// initRouter initializes Gin, registers middleware and controllers and
// returns the configured engine.
func (s *Server) initRouter(keys *cookieKeys) (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	// ClientIP is the socket peer; forwarded headers are not trusted.
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	bundle, err := locale.New(i18nFS)
	if err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID(), middleware.Recovery(), middleware.AccessLog())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(bundle.Middleware())
	engine.Use(session.FlashMiddleware(keys.flashHash, keys.flashBlock, s.cfg.CookieSecure, s.cfg.SessionMaxAge))
	engine.Use(s.binder.Middleware())
	engine.Use(middleware.AuditMiddleware(s.auditService))
	engine.Use(middleware.CSRF())

	throttle := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		RequestsPerWindow: s.cfg.LoginAttemptsPerMinute,
		Counter:           s.throttle,
	})

	g := engine.Group("/")
	controller.NewIndexController(g, s.authService, s.binder, s.auditService, throttle)
	controller.NewPostController(g, s.postService, s.commentService)
	controller.NewAccountController(g, s.authService, s.auditService)
	controller.NewAuditController(g, s.auditService, s.serverService)
	controller.NewHealthController(g, s.ready, map[string]controller.Pinger{
		"database": database.Pinger{DB: s.db},
		"redis":    s.redis,
	})

	// 404 handler
	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "msg": http.StatusText(http.StatusNotFound)})
	})

	return engine, nil
}

// Handler returns the router built by Init.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// startTask schedules background jobs.
func (s *Server) startTask() {
	s.cron = cron.New()
	if _, err := s.cron.AddJob("@daily", job.NewAuditCleanupJob(s.auditService, s.cfg.AuditRetentionDays)); err != nil {
		logger.Warning("Add audit cleanup job error", err)
	}
	s.cron.Start()
}

// Start initializes the server if needed and starts listening.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if s.engine == nil {
		if err = s.Init(); err != nil {
			return err
		}
	}

	listenAddr := net.JoinHostPort(s.cfg.Listen, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	certFile, keyFile := s.cfg.CertFile, s.cfg.KeyFile
	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
			listener = network.NewRedirectListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop gracefully shuts down the web server, cron jobs and storage.
func (s *Server) Stop() error {
	s.ready.Store(false)
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	var errs []error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		errs = append(errs, s.httpServer.Shutdown(ctx))
	} else if s.listener != nil {
		errs = append(errs, s.listener.Close())
	}
	s.cancel()
	if s.throttle != nil {
		s.throttle.Flush()
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
		s.redis = nil
	}
	if s.db != nil {
		errs = append(errs, database.Close(s.db))
		s.db = nil
	}
	return common.Combine(errs...)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }
