package opsapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/skillsenselab/scribeflow/errors"
	"github.com/skillsenselab/scribeflow/foreman"
	"github.com/skillsenselab/scribeflow/jobstore"
	"github.com/skillsenselab/scribeflow/logger"
	"github.com/skillsenselab/scribeflow/version"
)

// Server is the operator API: read-only inspection of jobs and the
// accelerator lock, plus the two explicit operator actions, requeue and
// abandon. It never mutates job state on its own.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	store      *jobstore.Store
	foreman    *foreman.Foreman
	log        *logger.Logger
}

// New creates the operator API server and registers its routes.
func New(cfg Config, store *jobstore.Store, fm *foreman.Foreman) *Server {
	cfg.ApplyDefaults()

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logger.Get("opsapi")
	engine := gin.New()
	engine.Use(recovery())
	engine.Use(requestID())
	engine.Use(requestLogger(log))

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      engine,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		},
		engine:  engine,
		store:   store,
		foreman: fm,
		log:     log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/jobs", s.listJobs)
	s.engine.GET("/jobs/:id", s.getJob)
	s.engine.POST("/jobs/:id/requeue", s.requeueJob)
	s.engine.POST("/jobs/:id/abandon", s.abandonJob)
	s.engine.GET("/lock", s.lockStatus)
}

// Engine returns the underlying Gin engine, for tests and extra mounts.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("opsapi failed to bind %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("operator API started", logger.Fields("addr", s.httpServer.Addr))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// --- handlers ---

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.String()})
}

// listJobs serves GET /jobs?meeting_id=&status=. At least one filter is
// required; the job table is unbounded.
func (s *Server) listJobs(c *gin.Context) {
	meetingID := c.Query("meeting_id")
	statusParam := c.Query("status")

	if meetingID == "" && statusParam == "" {
		respondError(c, errors.Validation("meeting_id or status query parameter is required"))
		return
	}
	var status jobstore.Status
	if statusParam != "" {
		status = jobstore.Status(statusParam)
		if !status.Valid() {
			respondError(c, errors.Validation(fmt.Sprintf("unknown status %q", statusParam)))
			return
		}
	}

	var jobs []jobstore.Job
	var err error
	if meetingID != "" {
		jobs, err = s.store.ListByMeeting(c.Request.Context(), meetingID)
		if err == nil && status != "" {
			filtered := jobs[:0]
			for _, j := range jobs {
				if j.Status == status {
					filtered = append(filtered, j)
				}
			}
			jobs = filtered
		}
	} else {
		jobs, err = s.store.ListByStatus(c.Request.Context(), status)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, jobs)
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

// requeueJob serves POST /jobs/:id/requeue, the operator retry action for a
// failed job.
func (s *Server) requeueJob(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Requeue(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	job, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

type abandonRequest struct {
	Reason string `json:"reason"`
}

// abandonJob serves POST /jobs/:id/abandon, the operator force-fail action
// for a job stuck in processing.
func (s *Server) abandonJob(c *gin.Context) {
	id := c.Param("id")
	var req abandonRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "abandoned by operator"
	}

	if err := s.store.Abandon(c.Request.Context(), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	job, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, job)
}

type lockInfo struct {
	Held     bool   `json:"held"`
	TaskType string `json:"task_type,omitempty"`
	HeldFor  string `json:"held_for,omitempty"`
	Waiting  int    `json:"waiting"`
}

// lockStatus serves GET /lock with the accelerator lock holder and queue depth.
func (s *Server) lockStatus(c *gin.Context) {
	out := lockInfo{Waiting: s.foreman.Waiting()}
	if taskType, since, ok := s.foreman.Holder(); ok {
		out.Held = true
		out.TaskType = string(taskType)
		out.HeldFor = time.Since(since).Round(time.Millisecond).String()
	}
	respondOK(c, out)
}

// --- responses ---

// dataResponse is the standard success envelope.
type dataResponse struct {
	Data any `json:"data"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dataResponse{Data: data})
}

// respondError derives the status and body from a *errors.PipelineError;
// foreign errors get a generic 500.
func respondError(c *gin.Context, err error) {
	var pe *errors.PipelineError
	if stderrors.As(err, &pe) {
		c.JSON(pe.HTTPStatus, gin.H{"error": pe})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": errors.Internal(err)})
}
