package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
	"policy-rag/internal/rag"
	"policy-rag/internal/session"
)

// Server wires the HTTP surface to the pipeline. The corpus searcher backs
// the fixed-corpus /evaluate endpoint and may be nil when the corpus failed
// to build; the session store backs /upload and /query.
type Server struct {
	cfg      *config.Config
	engine   *rag.Engine
	embedder embeddings.Embedder
	corpus   rag.Searcher
	sessions session.Store
}

func New(cfg *config.Config, engine *rag.Engine, embedder embeddings.Embedder, corpus rag.Searcher, sessions session.Store) *Server {
	return &Server{cfg: cfg, engine: engine, embedder: embedder, corpus: corpus, sessions: sessions}
}

// Router builds the echo instance with all routes registered.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "Failed to process the request."
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		log.Error().Err(err).Int("status", code).Str("method", req.Method).Str("path", req.URL.Path).Msg("request failed")
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/evaluate", s.handleEvaluate)
	e.POST("/upload", s.handleUpload)
	e.POST("/query", s.handleQuery)
	return e
}

func (s *Server) Run() error {
	e := s.Router()
	log.Info().Str("addr", s.cfg.Server.Addr).Msg("starting server")
	return e.Start(s.cfg.Server.Addr)
}

type evaluateRequest struct {
	Query string `json:"query"`
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleEvaluate(c echo.Context) error {
	var req evaluateRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing 'query' in request body.")
	}
	if s.corpus == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Vector store is not available.")
	}

	eval, err := s.engine.Evaluate(c.Request().Context(), s.corpus, req.Query)
	if err != nil {
		return pipelineError(err)
	}
	return c.JSON(http.StatusOK, eval)
}

func (s *Server) handleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form.")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No files uploaded.")
	}

	// The whole batch is rejected before any file is parsed; a session is
	// only ever created from an all-PDF upload.
	for _, fh := range files {
		if strings.ToLower(filepath.Ext(fh.Filename)) != ".pdf" {
			return echo.NewHTTPError(http.StatusBadRequest, "Only PDF files are supported.")
		}
	}

	tmpDir, err := os.MkdirTemp("", "policy-rag-upload-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	ctx := c.Request().Context()
	var passages []models.Passage
	for _, fh := range files {
		path, err := saveUpload(fh, tmpDir)
		if err != nil {
			return pipelineError(err)
		}
		filePassages, err := rag.ExtractPassages(path, &s.cfg.RAG)
		if err != nil {
			return pipelineError(err)
		}
		passages = append(passages, filePassages...)
	}

	index, err := rag.BuildIndex(ctx, s.embedder, "session", passages)
	if err != nil {
		return pipelineError(err)
	}

	id, err := s.sessions.Create(index)
	if err != nil {
		return pipelineError(err)
	}

	log.Info().Str("session_id", id).Int("files", len(files)).Int("passages", len(passages)).Msg("ingested upload")
	return c.JSON(http.StatusOK, map[string]string{
		"message":    "Files processed successfully.",
		"session_id": id,
	})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.SessionID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing 'query' or 'session_id' in request body.")
	}

	index, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return pipelineError(err)
	}

	answer, err := s.engine.Answer(c.Request().Context(), rag.IndexSearcher{Index: index}, req.Query)
	if err != nil {
		return pipelineError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}

// pipelineError maps pipeline failures to HTTP statuses. Internal detail
// stays in the server log; callers get a generic message.
func pipelineError(err error) error {
	switch {
	case errors.Is(err, models.ErrUnsupportedFileType):
		return echo.NewHTTPError(http.StatusBadRequest, "Only PDF files are supported.")
	case errors.Is(err, models.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Unknown session.")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process the request.").SetInternal(err)
	}
}

func saveUpload(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(dir, filepath.Base(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path, nil
}
