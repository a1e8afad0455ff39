// Package server exposes the read/chat HTTP facade: an advisor chat endpoint
// backed by the vector index, preference management, and a latest-news read
// API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Adda-Baaj/bazar-khobor/internal/domain"
	"github.com/Adda-Baaj/bazar-khobor/internal/jsonrepair"
	"github.com/Adda-Baaj/bazar-khobor/internal/llm"
	"github.com/Adda-Baaj/bazar-khobor/internal/logger"
	"github.com/Adda-Baaj/bazar-khobor/internal/store"
)

const chatSystemPrompt = "You are a financial advisor, who is provided with information snippets from multiple news sources and a vector database around the message of the user. Analyze the snippets and give a clear and crisp answer with reasons."

const defaultSnippetCount = 5

// Searcher is the vector-index lookup the chat endpoint relies on.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, topK int) ([]string, error)
}

// Server wires the HTTP facade's handlers to their backing services.
type Server struct {
	complete llm.Completer
	search   Searcher
	prefs    store.PreferenceStore
	snippets store.SnippetStore
	log      logger.Logger
}

// New builds the facade. A nil logger is replaced with a no-op one.
func New(complete llm.Completer, search Searcher, prefs store.PreferenceStore, snippets store.SnippetStore, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Server{
		complete: complete,
		search:   search,
		prefs:    prefs,
		snippets: snippets,
		log:      log,
	}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/preferences", s.handleUpsertPreference)
		r.Get("/preferences", s.handleGetPreference)
		r.Get("/news/latest", s.handleLatestNews)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message     string   `json:"message"`
	History     []string `json:"history"`
	StockName   string   `json:"stock_name"`
	CurrentNews string   `json:"current_news"`
}

type chatResponse struct {
	Message   string   `json:"message"`
	History   []string `json:"history"`
	StockName string   `json:"stock_name"`
}

// handleChat answers a user question against the vector index. Retrieved
// snippets plus optional caller-supplied news text form the model context;
// the reply is cleaned the same way as normalizer output before it is
// returned.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	stock := req.StockName
	if stock == "" {
		stock = "All stock information, no specific stock mentioned"
	}

	snippets, err := s.search.SimilaritySearch(r.Context(), req.Message, defaultSnippetCount)
	if err != nil {
		s.log.WarnObj("vector search failed, answering without snippets", "chat_search_error", map[string]any{
			"error": err.Error(),
		})
		snippets = nil
	}

	// Oldest history entry last, mirroring how the conversation is replayed.
	reversed := make([]string, 0, len(req.History))
	for i := len(req.History) - 1; i >= 0; i-- {
		reversed = append(reversed, req.History[i])
	}

	prompts := []string{
		"Current user message: " + req.Message,
		"User is particularly interested in stock: " + stock,
		"Conversation history so far: " + strings.Join(reversed, ""),
		"Related stored news snippets: " + strings.Join(snippets, "\n"),
	}
	if req.CurrentNews != "" {
		prompts = append(prompts, "Latest page content: "+req.CurrentNews)
	}

	answer, err := s.complete.Complete(r.Context(), chatSystemPrompt, prompts)
	if err != nil {
		s.log.ErrorObj("chat completion failed", "chat_llm_error", map[string]any{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cleaned := jsonrepair.Clean(answer)
	history := append(req.History, "{"+req.Message+": "+cleaned+"}")

	writeJSON(w, http.StatusOK, chatResponse{
		Message:   cleaned,
		History:   history,
		StockName: stock,
	})
}

type preferenceRequest struct {
	UserID string   `json:"user_id"`
	Topics []string `json:"topics"`
}

// handleUpsertPreference stores a user's topic subscriptions, last write
// wins. Unknown topic labels are rejected up front so they can never sit in
// a stored preference without ever matching.
func (s *Server) handleUpsertPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || len(req.Topics) == 0 {
		writeError(w, http.StatusBadRequest, "user_id and topics are required")
		return
	}

	normalized := make([]string, 0, len(req.Topics))
	for _, raw := range req.Topics {
		topic, ok := domain.ParseTopic(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown topic: "+raw)
			return
		}
		normalized = append(normalized, string(topic))
	}

	err := s.prefs.UpsertPreference(r.Context(), domain.UserPreference{
		UserID: req.UserID,
		Topics: normalized,
	})
	if err != nil {
		s.log.ErrorObj("preference upsert failed", "preference_upsert_error", map[string]any{
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user preference saved"})
}

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	pref, found, err := s.prefs.GetPreference(r.Context(), userID)
	if err != nil {
		s.log.ErrorObj("preference lookup failed", "preference_get_error", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "user preference not found")
		return
	}

	writeJSON(w, http.StatusOK, pref)
}

// handleLatestNews serves recent articles grouped by source, optionally
// filtered to one topic.
func (s *Server) handleLatestNews(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic != "" {
		parsed, ok := domain.ParseTopic(topic)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown topic: "+topic)
			return
		}
		topic = string(parsed)
	}

	snippets, err := s.snippets.LatestSnippets(r.Context(), topic, 10)
	if err != nil {
		s.log.ErrorObj("snippet aggregation failed", "snippets_error", map[string]any{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if snippets == nil {
		snippets = []store.SourceSnippets{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": snippets})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
