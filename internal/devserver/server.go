package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"captioner/internal/logging"
	"captioner/internal/subtitles"
)

// Models lists the model names the fake service advertises.
var Models = []string{"tiny", "base", "small", "medium", "large"}

// Options configures a Server.
type Options struct {
	Addr   string
	Model  string
	Logger *slog.Logger
	// Logs, when set, is served at GET /logs.
	Logs *logging.StreamHub
	// FailWith makes /transcribe answer 500 with this message.
	FailWith string
	// Delay is applied before each transcription response.
	Delay time.Duration
}

// Server is the fake transcription service.
type Server struct {
	opts   Options
	logger *slog.Logger
	engine *gin.Engine
}

// New builds the server and its routes.
func New(opts Options) *Server {
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = "base"
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "devserver"),
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/models", s.handleModels)
	s.engine.POST("/transcribe", s.handleTranscribe)
	s.engine.GET("/logs", s.handleLogs)
	return s
}

// Handler exposes the routes for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on opts.Addr until ctx ends. ready, when non-nil, receives the
// bound address once the listener is open.
func (s *Server) Run(ctx context.Context, ready func(addr string)) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("dev server listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	addr := listener.Addr().String()
	s.logger.Info("dev transcription server listening",
		logging.String("address", addr),
		logging.String("model", s.opts.Model))
	if ready != nil {
		ready(addr)
	}
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dev server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"model":          s.opts.Model,
		"faster_whisper": false,
	})
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current_model":    s.opts.Model,
		"available_models": Models,
		"faster_whisper":   false,
	})
}

func (s *Server) handleTranscribe(c *gin.Context) {
	header, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file missing"})
		return
	}
	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultPostForm("format", "srt")))

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return
	}

	if s.opts.Delay > 0 {
		select {
		case <-time.After(s.opts.Delay):
		case <-c.Request.Context().Done():
			return
		}
	}
	if s.opts.FailWith != "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": s.opts.FailWith})
		return
	}

	cues := PlaceholderCues(AudioDuration(audio))
	s.logger.Info("transcription generated",
		logging.String("filename", header.Filename),
		logging.String("format", format),
		logging.Int("audio_bytes", len(audio)),
		logging.Int("captions", len(cues)))

	switch format {
	case "xml":
		doc, err := subtitles.FormatXML(cues, subtitles.DefaultSequenceName)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="subtitles.xml"`)
		c.Data(http.StatusOK, "application/xml", doc)
	case "srt":
		c.Header("Content-Disposition", `attachment; filename="subtitles.srt"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", subtitles.FormatSRT(cues))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format %q", format)})
	}
}

func (s *Server) handleLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = logging.DefaultStreamCapacity
	}
	events, next := s.opts.Logs.Tail(limit)
	c.JSON(http.StatusOK, gin.H{"events": events, "next": next})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request served",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)))
	}
}
