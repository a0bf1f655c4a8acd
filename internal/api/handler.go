package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SurgeScreener/internal/board"
	"SurgeScreener/internal/model"
	"SurgeScreener/internal/recorder"
	"SurgeScreener/internal/report"
)

// Refresher runs a batch on demand.
type Refresher interface {
	RunNow(ctx context.Context, iv model.Interval) (*model.Batch, error)
}

// Server serves the board over HTTP.
type Server struct {
	Board            *board.Board
	Refresher        Refresher
	Recorder         recorder.Recorder
	DefaultInterval  model.Interval
	DefaultThreshold float64
	Logger           *zap.Logger
}

// queryParams are the filters shared by the board endpoints.
type queryParams struct {
	Threshold string `form:"threshold"`
	Interval  string `form:"interval"`
	Sector    string `form:"sector"`
}

type shockersResponse struct {
	BatchID   string      `json:"batch_id"`
	AsOf      time.Time   `json:"as_of"`
	Interval  string      `json:"interval"`
	Threshold float64     `json:"threshold"`
	Evaluated int         `json:"evaluated"`
	Skipped   int         `json:"skipped"`
	Rows      []model.Row `json:"rows"`
}

type skippedEntry struct {
	Symbol string `json:"symbol"`
	Sector string `json:"sector,omitempty"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) parseQuery(c *gin.Context) (model.Interval, float64, []string, error) {
	var params queryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return "", 0, nil, err
	}

	iv := s.DefaultInterval
	if params.Interval != "" {
		parsed, err := model.ParseInterval(params.Interval)
		if err != nil {
			return "", 0, nil, err
		}
		iv = parsed
	}

	threshold := s.DefaultThreshold
	if params.Threshold != "" {
		v, err := strconv.ParseFloat(params.Threshold, 64)
		if err != nil || v <= 0 {
			return "", 0, nil, fmt.Errorf("invalid threshold %q: must be a positive number", params.Threshold)
		}
		threshold = v
	}

	var sectors []string
	for _, part := range strings.Split(params.Sector, ",") {
		if p := strings.TrimSpace(part); p != "" {
			sectors = append(sectors, p)
		}
	}
	return iv, threshold, sectors, nil
}

func (s *Server) view(c *gin.Context) (board.View, bool) {
	iv, threshold, sectors, err := s.parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return board.View{}, false
	}
	v, ok := s.Board.View(iv, threshold, sectors)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no batch published for interval %s yet", iv)})
		return board.View{}, false
	}
	return v, true
}

func (s *Server) GetShockers(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}
	rows := v.Rows
	if rows == nil {
		rows = []model.Row{}
	}
	evaluated := v.Batch.Evaluated()
	c.JSON(http.StatusOK, shockersResponse{
		BatchID:   v.Batch.ID,
		AsOf:      v.Batch.AsOf,
		Interval:  string(v.Batch.Interval),
		Threshold: v.Threshold,
		Evaluated: evaluated,
		Skipped:   len(v.Batch.Outcomes) - evaluated,
		Rows:      rows,
	})
}

func (s *Server) GetShockersCSV(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+report.CSVFilename)
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, v.Rows); err != nil {
		s.Logger.Error("write csv", zap.Error(err))
	}
}

func (s *Server) GetSkipped(c *gin.Context) {
	iv, _, _, err := s.parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch := s.Board.Latest(iv)
	if batch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no batch published for interval %s yet", iv)})
		return
	}
	out := []skippedEntry{}
	for _, o := range batch.Skipped() {
		out = append(out, skippedEntry{Symbol: o.Symbol, Sector: o.Sector, Reason: o.Skip.Reason, Detail: o.Skip.Detail})
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": batch.ID, "interval": string(iv), "skipped": out})
}

func (s *Server) PostRefresh(c *gin.Context) {
	iv, _, _, err := s.parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch, err := s.Refresher.RunNow(c.Request.Context(), iv)
	if err != nil {
		s.Logger.Error("manual refresh failed", zap.String("interval", string(iv)), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	evaluated := batch.Evaluated()
	c.JSON(http.StatusOK, gin.H{
		"batch_id":  batch.ID,
		"interval":  string(batch.Interval),
		"evaluated": evaluated,
		"skipped":   len(batch.Outcomes) - evaluated,
		"duration":  batch.Duration.String(),
	})
}

func (s *Server) GetRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.Recorder.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []recorder.RunSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) SetupRoutes() *gin.Engine {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Recorder == nil {
		s.Recorder = recorder.NewNoopRecorder()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(s.Logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/shockers", s.GetShockers)
	r.GET("/api/shockers.csv", s.GetShockersCSV)
	r.GET("/api/skipped", s.GetSkipped)
	r.GET("/api/runs", s.GetRuns)
	r.POST("/api/refresh", s.PostRefresh)

	return r
}
