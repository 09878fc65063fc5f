// Package api serves leaderboards, public profile cards and the keystroke
// scorer over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/tapixo/internal/anticheat"
	"github.com/verte-zerg/tapixo/internal/model"
	"github.com/verte-zerg/tapixo/internal/recorder"
	"github.com/verte-zerg/tapixo/internal/store"
)

// MaxLimit bounds the limit query parameter.
const MaxLimit = 200

// Store is the read side of the database the API needs.
type Store interface {
	GetUserByName(ctx context.Context, name string) (model.User, error)
	LoadBests(ctx context.Context, userID string) (model.Bests, error)
	RankOf(ctx context.Context, userID string) (int, error)
	CountResults(ctx context.Context, userID string) (int, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]model.Result, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// Config holds server settings.
type Config struct {
	AllowOrigins []string
	Threshold    float64
}

// Server wires handlers onto a gin engine.
type Server struct {
	store     Store
	logger    *slog.Logger
	threshold float64
	router    *gin.Engine
}

// New builds the router. An empty AllowOrigins allows any origin.
func New(st Store, cfg Config, logger *slog.Logger) *Server {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = recorder.DefaultThreshold
	}
	s := &Server{
		store:     st,
		logger:    logger,
		threshold: cfg.Threshold,
		router:    gin.New(),
	}

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}

	s.router.Use(gin.Recovery(), s.requestLogger(), cors.New(corsCfg))

	api := s.router.Group("/api")
	api.GET("/leaderboard", s.leaderboard)
	api.GET("/users/:name", s.profile)
	api.GET("/users/:name/history", s.history)
	api.POST("/score", s.score)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

type leaderboardEntry struct {
	Rank     int       `json:"rank"`
	Username string    `json:"username"`
	WPM      int       `json:"wpm"`
	Accuracy int       `json:"accuracy"`
	Date     time.Time `json:"date"`
}

type bestEntry struct {
	WPM      int       `json:"wpm"`
	Accuracy int       `json:"accuracy"`
	Date     time.Time `json:"date"`
}

type profileCard struct {
	Username  string               `json:"username"`
	CreatedAt time.Time            `json:"createdAt"`
	Tests     int                  `json:"tests"`
	Rank      int                  `json:"rank,omitempty"`
	Bests     map[string]bestEntry `json:"bests"`
}

type historyEntry struct {
	ID          string    `json:"id"`
	WPM         int       `json:"wpm"`
	Accuracy    int       `json:"accuracy"`
	ErrorCount  int       `json:"errorCount"`
	DurationSec int       `json:"durationSec"`
	Difficulty  string    `json:"difficulty"`
	Mode        string    `json:"mode"`
	Category    string    `json:"category"`
	Language    string    `json:"language,omitempty"`
	CheatScore  float64   `json:"cheatScore"`
	Rejected    bool      `json:"rejected"`
	CreatedAt   time.Time `json:"createdAt"`
}

type scoreRequest struct {
	Keystrokes []anticheat.Keystroke `json:"keystrokes" binding:"required"`
}

type scoreResponse struct {
	Score          float64 `json:"score"`
	Rejected       bool    `json:"rejected"`
	Keystrokes     int     `json:"keystrokes"`
	FlowIntervals  int     `json:"flowIntervals"`
	MeanFlowMs     float64 `json:"meanFlowMs"`
	StdDevMs       float64 `json:"stdDevMs"`
	EstimatedWPM   float64 `json:"estimatedWpm"`
	DigraphChecked bool    `json:"digraphChecked"`
	DigraphRatio   float64 `json:"digraphRatio"`
}

func (s *Server) leaderboard(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	entries, err := s.store.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]leaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntry{Rank: e.Rank, Username: e.Username, WPM: e.WPM, Accuracy: e.Accuracy, Date: e.Date})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out, "count": len(out)})
}

func (s *Server) profile(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.lookupUser(c)
	if !ok {
		return
	}
	bests, err := s.store.LoadBests(ctx, user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	rank, err := s.store.RankOf(ctx, user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	tests, err := s.store.CountResults(ctx, user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	card := profileCard{
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		Tests:     tests,
		Rank:      rank,
		Bests:     make(map[string]bestEntry, len(bests)),
	}
	for d, b := range bests {
		if b == nil {
			continue
		}
		card.Bests[string(d)] = bestEntry{WPM: b.WPM, Accuracy: b.Accuracy, Date: b.Date}
	}
	c.JSON(http.StatusOK, card)
}

func (s *Server) history(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	user, ok := s.lookupUser(c)
	if !ok {
		return
	}
	results, err := s.store.ListHistory(c.Request.Context(), user.ID, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]historyEntry, 0, len(results))
	for _, r := range results {
		out = append(out, historyEntry{
			ID:          r.ID,
			WPM:         r.WPM,
			Accuracy:    r.Accuracy,
			ErrorCount:  r.ErrorCount,
			DurationSec: r.DurationSec,
			Difficulty:  string(r.Difficulty),
			Mode:        string(r.Mode),
			Category:    string(r.Category),
			Language:    string(r.Language),
			CheatScore:  r.CheatScore,
			Rejected:    r.Rejected,
			CreatedAt:   r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"username": user.Username, "results": out, "count": len(out)})
}

func (s *Server) score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rep := anticheat.Analyze(req.Keystrokes)
	c.JSON(http.StatusOK, scoreResponse{
		Score:          rep.Score,
		Rejected:       rep.Score > s.threshold,
		Keystrokes:     rep.Keystrokes,
		FlowIntervals:  rep.FlowIntervals,
		MeanFlowMs:     rep.MeanFlowMs,
		StdDevMs:       rep.StdDevMs,
		EstimatedWPM:   finite(rep.EstimatedWPM),
		DigraphChecked: rep.DigraphChecked,
		DigraphRatio:   finite(rep.DigraphRatio),
	})
}

// finite maps the infinities Analyze uses for zero-latency logs to -1, which JSON can carry.
func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return -1
	}
	return v
}

func (s *Server) lookupUser(c *gin.Context) (model.User, bool) {
	name := c.Param("name")
	user, err := s.store.GetUserByName(c.Request.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("user %q not found", name)})
		return model.User{}, false
	}
	if err != nil {
		s.fail(c, err)
		return model.User{}, false
	}
	return user, true
}

func (s *Server) fail(c *gin.Context, err error) {
	s.logger.Error("request failed", "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// parseLimit reads ?limit=; zero means the store default.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", MaxLimit)})
		return 0, false
	}
	return limit, true
}
