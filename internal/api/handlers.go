package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/resolve"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
	"github.com/FocuswithJustin/JuniperTorah/internal/validation"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Clients int    `json:"clients"`
	Source  string `json:"source"`
}

// ParashaInfo answers a parasha lookup: the owning parasha, its share of
// the requested chapter and its chapters that have data.
type ParashaInfo struct {
	Parasha  *torah.Parasha `json:"parasha"`
	Range    *resolve.Range `json:"range,omitempty"`
	Chapters []int          `json:"chapters,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Version: s.version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Clients: s.hub.ClientCount(),
		Source:  s.loader.Fetcher().Source().String(),
	})
}

func (s *Server) handleVerse(w http.ResponseWriter, r *http.Request) {
	book := r.PathValue("book")
	if err := validation.ValidateSlug(book); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BOOK", err.Error())
		return
	}
	chapter, verse, err := validation.ParseChapterVerse(r.PathValue("chapter"), r.PathValue("verse"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_POSITION", err.Error())
		return
	}

	rec, err := s.loader.LoadVerse(r.Context(), book, chapter, verse, r.URL.Query().Get("parasha"))
	if err != nil {
		s.respondLoadError(w, r, err)
		return
	}
	respond(w, http.StatusOK, rec)
}

func (s *Server) handleParasha(w http.ResponseWriter, r *http.Request) {
	book := r.PathValue("book")
	if err := validation.ValidateSlug(book); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BOOK", err.Error())
		return
	}
	chapter, verse, err := validation.ParseChapterVerse(r.PathValue("chapter"), r.PathValue("verse"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_POSITION", err.Error())
		return
	}

	ctx := r.Context()
	p, err := s.loader.ResolveParasha(ctx, book, chapter, verse)
	if err != nil {
		s.respondLoadError(w, r, err)
		return
	}

	info := ParashaInfo{Parasha: p}
	if verses, err := s.loader.AvailableVerses(ctx, book, chapter, p.ID); err == nil && len(verses) > 0 {
		info.Range = &resolve.Range{Start: verses[0], End: verses[len(verses)-1]}
	}
	if chapters, err := s.loader.ChaptersForParasha(ctx, book, p.ID); err == nil {
		info.Chapters = chapters
	}
	respond(w, http.StatusOK, info)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.loader.Fetcher().Stats(r.Context())
	if err != nil {
		logging.ErrorContext(r.Context(), "cache stats failed", "error", err)
		respondError(w, http.StatusInternalServerError, "CACHE_ERROR", "Failed to read cache statistics")
		return
	}
	respond(w, http.StatusOK, stats)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.Fetcher().Clear(r.Context()); err != nil {
		logging.ErrorContext(r.Context(), "cache clear failed", "error", err)
		respondError(w, http.StatusInternalServerError, "CACHE_ERROR", "Failed to clear cache")
		return
	}
	s.hub.Broadcast(Event{Type: EventCacheCleared})
	respond(w, http.StatusOK, map[string]bool{"cleared": true})
}

// respondLoadError maps the reader error taxonomy onto HTTP statuses.
func (s *Server) respondLoadError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound   *errors.NotFoundError
		parse      *errors.ParseError
		invalid    *errors.ValidationError
		resolution *errors.ResolutionError
	)
	switch {
	case errors.As(err, &invalid):
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.As(err, &resolution):
		respondError(w, http.StatusNotFound, "UNRESOLVED", err.Error())
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &parse):
		logging.WarnContext(r.Context(), "malformed data document", "error", err)
		respondError(w, http.StatusBadGateway, "MALFORMED_DATA", err.Error())
	default:
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data, Meta: newMeta()})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    newMeta(),
	})
}

func newMeta() *APIMeta {
	return &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("response write failed", "error", err)
	}
}
