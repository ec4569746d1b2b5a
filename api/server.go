package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"newsshorts/config"
	"newsshorts/logger"
	"newsshorts/pipeline"
	"newsshorts/types"
)

// RunController starts runs and reports their progress.
type RunController interface {
	Start(ctx context.Context, trigger string) (string, error)
	Status() pipeline.Status
	Busy() bool
}

// FeedReader fetches articles for the feed preview endpoint.
type FeedReader interface {
	FetchAll(ctx context.Context, sources []types.FeedSource, limit int) []types.Article
}

// Server is the HTTP front of the pipeline service.
type Server struct {
	runner  RunController
	feeds   FeedReader
	sources []types.FeedSource
	limit   int

	engine     *gin.Engine
	httpServer *http.Server
	cron       *cron.Cron
	cronID     cron.EntryID
	mu         sync.Mutex

	// ctx bounds runs started by the server; cancelled on Shutdown
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

// NewServer builds the router. feeds may be nil, which disables the feed
// preview endpoint.
func NewServer(cfg *config.Config, runner RunController, feeds FeedReader, log logrus.FieldLogger) *Server {
	log = logger.OrDiscard(log)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		runner:  runner,
		feeds:   feeds,
		sources: cfg.Feeds.Sources,
		limit:   cfg.Feeds.Limit,
		cron:    cron.New(cron.WithLogger(cron.PrintfLogger(log))),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}

	port := cfg.Server.Port
	if port == "" {
		port = config.DefaultPort
	}
	s.engine = NewRouter(s)
	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	RegisterHealthRoutes(r)
	RegisterRunRoutes(r, s)
	RegisterFeedRoutes(r, s)
	return r
}

// requestLogger logs each request at debug level.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves HTTP in the background. A listener failure is logged and
// reported on the returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	s.log.WithField("addr", s.httpServer.Addr).Info("Starting HTTP server")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("HTTP server error")
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// StartCron schedules automated runs. A tick that lands while a run is in
// flight is skipped.
func (s *Server) StartCron(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cronID = id
	s.cron.Start()
	s.log.WithField("schedule", schedule).Info("Cron job started")
	return nil
}

func (s *Server) runScheduled() {
	if s.runner.Busy() {
		s.log.WithField("state", s.runner.Status().State).Info("Cron skipped: pipeline is busy")
		return
	}
	id, err := s.runner.Start(s.ctx, "cron")
	if err != nil {
		s.log.WithError(err).Warn("Cron run not started")
		return
	}
	s.log.WithField("run_id", id).Info("Cron triggered a run")
}

// Shutdown stops the scheduler and the HTTP server, then cancels runs the
// server started.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")

	<-s.cron.Stop().Done()
	err := s.httpServer.Shutdown(ctx)
	s.cancel()
	return err
}
