package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/photozip"
)

type Service interface {
	Open(ctx context.Context, token string) (*photozip.Archive, error)
	Stream(ctx context.Context, archive *photozip.Archive, sink photozip.ChunkWriter) (photozip.StreamStats, error)
	History(ctx context.Context, q photozip.HistoryQuery) (photozip.HistoryResult, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// IndexPage is served on GET / as text/html. It is read once at startup.
	IndexPage []byte
	// ChunkWriteTimeout bounds each chunk write to a slow client; zero disables it.
	ChunkWriteTimeout time.Duration
	CORS              CORSConfig
}

// Handler provides HTTP handlers for archive streaming.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
// The archive route accepts the token with or without a trailing slash.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   append([]string{"Content-Disposition"}, h.config.CORS.ExposedHeaders...),
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(writeDefaultNotFound)

	r.Get("/", h.handleIndex)
	r.Get("/archive/{archive_hash}/", h.handleArchive)
	r.Get("/archive/{archive_hash}", h.handleArchive)
	r.Get("/history", h.handleHistory)

	return r
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.config.IndexPage)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "archive_hash")

	archive, err := h.service.Open(r.Context(), token)
	if err != nil {
		var notFound *photozip.NotFoundError
		switch {
		case errors.As(err, &notFound):
			WriteText(w, http.StatusNotFound, notFound.Error())
		case errors.Is(err, photozip.ErrInvalidInput):
			WriteText(w, http.StatusBadRequest, "Invalid archive name.")
		default:
			slog.Error("failed to open archive", "token", token, "err", err)
			WriteText(w, http.StatusInternalServerError, "Internal server error.")
		}
		return
	}

	log := slog.With("archive_id", archive.ID, "request_id", middleware.GetReqID(r.Context()))

	header := w.Header()
	header.Set("Content-Disposition", photozip.ContentDisposition(token))
	header.Set("Content-Type", "application/zip")
	// The connection is never reused after an archive.
	header.Set("Connection", "close")

	sink := newResponseSink(w, h.config.ChunkWriteTimeout)

	var streamErr error
	defer func() {
		log.Info("force closing archive response", "aborted", streamErr != nil)
		if streamErr != nil {
			// Headers and part of the body are committed; abort the
			// connection so the client never sees a well-terminated body.
			panic(http.ErrAbortHandler)
		}
	}()

	w.WriteHeader(http.StatusOK)
	// Headers go out before the first chunk so the download starts at once.
	if err := sink.Flush(); err != nil {
		log.Debug("flush archive headers", "err", err)
	}

	_, streamErr = h.service.Stream(r.Context(), archive, sink)
	if errors.Is(streamErr, context.Canceled) || errors.Is(streamErr, context.DeadlineExceeded) {
		log.Info("archive stream cancelled", "err", streamErr)
	} else if streamErr != nil {
		log.Warn("archive stream failed", "err", streamErr)
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 100
	if limitStr := q.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_parameter", "limit must be an integer")
			return
		}
		limit = max(1, min(1000, parsed))
	}

	query := photozip.HistoryQuery{
		Token:  q.Get("token"),
		Limit:  limit,
		Cursor: q.Get("cursor"),
	}

	result, err := h.service.History(r.Context(), query)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}
