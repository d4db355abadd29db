// Package rest exposes the moodjournal REST API over gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/logging"
	"github.com/dmitrijs2005/moodjournal/internal/server/auth"
	"github.com/dmitrijs2005/moodjournal/internal/server/models"
	"github.com/dmitrijs2005/moodjournal/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, userName, password string) (*models.User, error)
	Authenticate(ctx context.Context, userName, password string) (*services.Session, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type EntryService interface {
	Save(ctx context.Context, userID, encryptedText, encryptedVector string) (string, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Entry, error)
}

type ArchiveService interface {
	Export(ctx context.Context, userID string) (*services.Archive, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Options carries the optional parts of the server.
type Options struct {
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	// Limiter throttles signup and login; nil disables throttling.
	Limiter Limiter
	// Archive serves /api/history/export; nil answers 501.
	Archive ArchiveService
}

type RESTServer struct {
	address  string
	users    UserService
	entries  EntryService
	verifier TokenVerifier
	opts     Options
	logger   logging.Logger
}

func NewRESTServer(address string, l logging.Logger, us UserService, es EntryService, v TokenVerifier, opts Options) *RESTServer {
	registerValidation()
	return &RESTServer{
		address:  address,
		users:    us,
		entries:  es,
		verifier: v,
		opts:     opts,
		logger:   l.With("module", "rest_server"),
	}
}

// Router builds the gin engine with middleware and routes.
func (s *RESTServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog(), cors.New(s.corsConfig()))

	api := r.Group("/api")
	api.GET("/ping", s.ping)

	throttled := api.Group("", s.rateLimit())
	throttled.POST("/signup", s.signup)
	throttled.POST("/login", s.login)

	private := api.Group("", s.bearerAuth())
	private.GET("/profile", s.profile)
	private.POST("/journal", s.createEntry)
	private.GET("/history", s.history)
	private.GET("/history/export", s.exportHistory)

	return r
}

func (s *RESTServer) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	origins := s.opts.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *RESTServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping REST server...")

		timeout := s.opts.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting REST server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
