package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"friendship-court/backend/internal/judge"
	"friendship-court/backend/internal/session"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	SessionTTL     time.Duration
	AllowedOrigins []string
	SilentDB       bool
	AIConfig       judge.Config
	DisableAI      bool
	// Thinking is the minimum duration a case stays in the thinking phase so
	// the frontend's loading animation plays out. Zero means no pacing.
	Thinking time.Duration
}

// Server wires HTTP handlers with session storage and the judgment oracle.
type Server struct {
	cases          session.CaseStore
	oracle         *judge.Oracle
	allowedOrigins []string
	caseNotifier   *CaseNotifier
	thinking       time.Duration
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	var cases session.CaseStore
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		opts := []session.RedisOption{}
		if cfg.SessionTTL > 0 {
			opts = append(opts, session.WithTTL(cfg.SessionTTL))
		}
		if prefix := strings.TrimSpace(cfg.RedisPrefix); prefix != "" {
			opts = append(opts, session.WithPrefix(prefix))
		}
		cases = session.NewRedisStore(addr, cfg.RedisPassword, cfg.RedisDB, opts...)
		logrus.WithField("addr", addr).Info("case sessions stored in redis")
	} else {
		if cfg.DBPath == "" {
			return nil, errors.New("db path required")
		}
		db, err := session.Open(cfg.DBPath, cfg.SilentDB)
		if err != nil {
			return nil, err
		}
		cases = db
	}

	var llm judge.Judge
	if cfg.DisableAI {
		logrus.Info("llm judge disabled via configuration")
	} else {
		client, err := judge.NewClient(cfg.AIConfig)
		switch {
		case err == nil:
			llm = client
		case errors.Is(err, judge.ErrDisabled):
			logrus.Info("llm judge disabled - no OpenAI credentials, serving heuristic verdicts")
		default:
			return nil, fmt.Errorf("llm judge: %w", err)
		}
	}

	server := &Server{
		cases:          cases,
		oracle:         judge.NewOracle(llm),
		allowedOrigins: cfg.AllowedOrigins,
		caseNotifier:   NewCaseNotifier(),
		thinking:       cfg.Thinking,
	}
	return server, nil
}

// Close releases the session store.
func (s *Server) Close() error {
	if s == nil || s.cases == nil {
		return nil
	}
	return s.cases.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)
	r.GET("/api/status", s.handleStatus)

	api := r.Group("/api")
	{
		api.POST("/cases", s.handleSubmitCase)
		api.GET("/cases/:id", s.handleGetCase)
		api.POST("/cases/:id/next", s.handleNextStep)
		api.POST("/cases/:id/prev", s.handlePrevStep)
		api.DELETE("/cases/:id", s.handleResetCase)
		api.GET("/stream", s.handleCaseStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tones":            judge.Tones(),
		"ai_enabled":       s.oracle.LLMEnabled(),
		"thinking_seconds": int(s.thinking.Seconds()),
	})
}

// handleStatus reports the most recent case lifecycle event. Clients that
// poll instead of holding a websocket open get the same catch-up a late
// stream joiner would be replayed.
func (s *Server) handleStatus(c *gin.Context) {
	status := s.caseNotifier.LastStatus()
	if status == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "event": status})
}

func (s *Server) handleSubmitCase(c *gin.Context) {
	var req SubmitCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	storyA := strings.TrimSpace(req.StoryA)
	storyB := strings.TrimSpace(req.StoryB)
	if storyA == "" || storyB == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("please enter both perspectives so the judge has something to weigh"))
		return
	}

	input := judge.CaseInput{
		StoryA: storyA,
		StoryB: storyB,
		Tone:   judge.NormalizeTone(req.Tone),
	}
	active := session.NewCase(uuid.NewString(), input)

	if err := s.cases.Save(c.Request.Context(), active); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	go s.runJudgment(active.ID, input)

	c.JSON(http.StatusAccepted, SubmitCaseResponse{
		CaseID:          active.ID,
		Phase:           string(active.Phase),
		ThinkingSeconds: int(s.thinking.Seconds()),
	})
}

func (s *Server) handleGetCase(c *gin.Context) {
	active, ok := s.loadCase(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, CaseFromModel(active))
}

func (s *Server) handleNextStep(c *gin.Context) {
	s.handleStep(c, func(active *session.Case) { active.NextStep() })
}

func (s *Server) handlePrevStep(c *gin.Context) {
	s.handleStep(c, func(active *session.Case) { active.PrevStep() })
}

func (s *Server) handleStep(c *gin.Context, move func(*session.Case)) {
	active, ok := s.loadCase(c)
	if !ok {
		return
	}
	if !active.HasResults() {
		s.renderError(c, http.StatusConflict, errors.New("case has no results to navigate yet"))
		return
	}
	move(active)
	if err := s.cases.Update(c.Request.Context(), active); err != nil {
		if errors.Is(err, session.ErrCaseNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("case %s not found", active.ID))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, CaseFromModel(active))
}

func (s *Server) handleResetCase(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("case id required"))
		return
	}
	if err := s.cases.Delete(c.Request.Context(), id); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	logrus.WithField("case", id).Info("case reset")
	s.caseNotifier.Broadcast(CaseEvent{Type: "reset", CaseID: id})
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) handleCaseStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.caseNotifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("case websocket connected")
	defer s.caseNotifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("case websocket closed")
			} else {
				logrus.WithError(err).Warn("case websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) loadCase(c *gin.Context) (*session.Case, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("case id required"))
		return nil, false
	}
	active, err := s.cases.Load(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrCaseNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("case %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	return active, true
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
