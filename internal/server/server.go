// Package server exposes the ingestion and read API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/scrimsight/go-scrim-metrics/internal/engine"
	"github.com/scrimsight/go-scrim-metrics/internal/logstore"
	"github.com/scrimsight/go-scrim-metrics/internal/parser"
	"github.com/scrimsight/go-scrim-metrics/internal/roster"
	"github.com/scrimsight/go-scrim-metrics/internal/storage"
	"github.com/scrimsight/go-scrim-metrics/internal/translate"
)

// Server wires the engine and storage read side into gin handlers.
type Server struct {
	engine  *gin.Engine
	proc    *engine.Engine
	db      *storage.DB
	store   logstore.Store
	logger  *slog.Logger
	workers int
}

// New builds the router. workers bounds the pool used by bulk processing.
func New(proc *engine.Engine, db *storage.DB, store logstore.Store, logger *slog.Logger, workers int) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		engine:  router,
		proc:    proc,
		db:      db,
		store:   store,
		logger:  logger,
		workers: workers,
	}
	router.Use(s.requestLog())

	api := router.Group("/api")
	api.POST("/tournaments/:id/logs", s.handleUpload)
	api.POST("/tournaments/:id/logs/:filename/process", s.handleProcessAsync)
	api.POST("/tournaments/:id/process", s.handleProcessTournament)
	api.GET("/matches", s.handleListMatches)
	api.GET("/matches/:id/stats", s.handleMatchStats)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return s
}

// HTTPServer returns the configured net/http server for the given address.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func tournamentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament id"})
		return 0, false
	}
	return id, true
}

// handleUpload receives a log as a multipart file, stores it and processes it
// synchronously. The response carries the match id and pipeline counts.
func (s *Server) handleUpload(c *gin.Context) {
	id, ok := tournamentID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("log")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field \"log\""})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filename := fileHeader.Filename
	if err := s.store.Put(c.Request.Context(), id, filename, raw); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	res, err := s.proc.ProcessLog(c.Request.Context(), id, filename, raw)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"match":  res.Match.ID,
		"rounds": res.Match.Score1 + res.Match.Score2,
		"stats":  len(res.Stats),
		"kills":  len(res.Kills),
		"fights": len(res.Fights),
	})
}

// handleProcessAsync acknowledges immediately with a job id and runs the
// pipeline in the background; failures surface only in the logs.
func (s *Server) handleProcessAsync(c *gin.Context) {
	id, ok := tournamentID(c)
	if !ok {
		return
	}
	filename := c.Param("filename")
	jobID := uuid.NewString()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.proc.ProcessStored(ctx, id, filename); err != nil {
			s.logger.Error("async log processing failed",
				"job", jobID, "tournament", id, "file", filename, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "job": jobID})
}

// handleProcessTournament kicks off a best-effort bulk run over every stored
// log of the tournament. An optional JSON body may override the worker count.
func (s *Server) handleProcessTournament(c *gin.Context) {
	id, ok := tournamentID(c)
	if !ok {
		return
	}

	workers := s.workers
	var opts struct {
		Workers int `json:"workers"`
	}
	if c.Request.Body != nil {
		if err := json.NewDecoder(c.Request.Body).Decode(&opts); err == nil && opts.Workers > 0 {
			workers = opts.Workers
		}
	}

	jobID := uuid.NewString()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()
		res, err := s.proc.ProcessTournament(ctx, id, workers)
		if err != nil {
			s.logger.Error("bulk processing failed", "job", jobID, "tournament", id, "error", err)
			return
		}
		s.logger.Info("bulk processing finished",
			"job", jobID, "tournament", id,
			"processed", res.Processed, "failed", res.Failed)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "job": jobID})
}

func (s *Server) handleListMatches(c *gin.Context) {
	matches, err := s.db.ListMatches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type item struct {
		ID       string `json:"id"`
		Map      string `json:"map"`
		Gamemode string `json:"gamemode"`
		Team1    string `json:"team1"`
		Team2    string `json:"team2"`
		Score1   int    `json:"score1"`
		Score2   int    `json:"score2"`
		PlayedAt string `json:"played_at,omitempty"`
	}
	out := make([]item, 0, len(matches))
	for _, m := range matches {
		it := item{
			ID: m.ID, Map: m.MapName, Gamemode: m.Gamemode,
			Team1: m.Team1Name, Team2: m.Team2Name,
			Score1: m.Score1, Score2: m.Score2,
		}
		if !m.PlayedAt.IsZero() {
			it.PlayedAt = m.PlayedAt.Format(time.RFC3339)
		}
		out = append(out, it)
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}

func (s *Server) handleMatchStats(c *gin.Context) {
	match, err := s.db.MatchByPrefix(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if match == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}

	players, err := s.db.PlayerSummaries(c.Request.Context(), match.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	kills, err := s.db.KillFeed(c.Request.Context(), match.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match": gin.H{
			"id": match.ID, "map": match.MapName, "gamemode": match.Gamemode,
			"team1": match.Team1Name, "team2": match.Team2Name,
			"score1": match.Score1, "score2": match.Score2,
		},
		"players":  players,
		"killfeed": kills,
	})
}

// renderError maps the pipeline's typed errors onto HTTP statuses.
func (s *Server) renderError(c *gin.Context, err error) {
	var (
		notFinished *parser.MatchNotFinishedError
		decodeErr   *parser.DecodeError
		teamErr     *roster.TeamNotFoundError
		collision   *roster.RosterCollisionError
		unknownName *translate.UnknownNameError
		notFound    *logstore.NotFoundError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &notFinished),
		errors.As(err, &decodeErr),
		errors.As(err, &teamErr),
		errors.As(err, &collision),
		errors.As(err, &unknownName):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.logger.Error("processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("processing failed: %v", err)})
	}
}
