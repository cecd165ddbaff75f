package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dvcard/internal/card"
	"dvcard/internal/qr"
	"dvcard/internal/store"
	"dvcard/internal/vcard"
)

// maxQRSize caps the requested QR edge length in pixels.
const maxQRSize = 2048

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := s.store.Ping(); err != nil {
		dbStatus = "error"
	}
	jsonOK(w, HealthResponse{Status: "ok", DB: dbStatus})
}

// ── /api/cards ────────────────────────────────────────────────────────────────

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.List(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonOK(w, cards)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var c card.Card
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		jsonError(w, "invalid card body", http.StatusBadRequest)
		return
	}
	id, err := s.store.Insert(r.Context(), c)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	created, err := s.store.Get(r.Context(), id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	jsonOK(w, created)
}

// ── /api/cards/{id} ───────────────────────────────────────────────────────────

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.cardFromPath(w, r)
	if !ok {
		return
	}
	jsonOK(w, c)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, "invalid card id", http.StatusBadRequest)
		return
	}
	var c card.Card
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		jsonError(w, "invalid card body", http.StatusBadRequest)
		return
	}
	c.ID = id
	if err := s.store.Update(r.Context(), c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	updated, err := s.store.Get(r.Context(), id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonOK(w, updated)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.cardFromPath(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── /api/cards/{id}/vcard and /qr.png ─────────────────────────────────────────

func (s *Server) handleVCard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.cardFromPath(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Write([]byte(vcard.Generate(c)))
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	c, ok := s.cardFromPath(w, r)
	if !ok {
		return
	}

	size := qr.DefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "invalid size", http.StatusBadRequest)
			return
		}
		if n > maxQRSize {
			n = maxQRSize
		}
		size = n
	}

	png, err := qr.PNG(vcard.Generate(c), size)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// ── /api/settings/language ────────────────────────────────────────────────────

// LanguageResponse describes the active UI language.
type LanguageResponse struct {
	Language    string `json:"language"`
	SwitchLabel string `json:"switch_label"`
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, LanguageResponse{
		Language:    s.prefs.Language(r.Context()),
		SwitchLabel: s.prefs.SwitchLabel(r.Context()),
	})
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.prefs.SetLanguage(r.Context(), body.Language); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonOK(w, LanguageResponse{
		Language:    s.prefs.Language(r.Context()),
		SwitchLabel: s.prefs.SwitchLabel(r.Context()),
	})
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// cardFromPath loads the card addressed by the {id} path variable, writing
// the error response itself when that fails.
func (s *Server) cardFromPath(w http.ResponseWriter, r *http.Request) (card.Card, bool) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, "invalid card id", http.StatusBadRequest)
		return card.Card{}, false
	}
	c, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "not found", http.StatusNotFound)
		return card.Card{}, false
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return card.Card{}, false
	}
	return c, true
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// jsonOK writes a JSON response.
func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
