package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/que-labs/quecore/internal/storage"
)

type settingValue struct {
	Value string `json:"value"`
}

// handleListSettings returns all persisted settings.
func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.settings.List(r.Context())
	if err != nil {
		s.logger.Error("listing settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing settings failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": all, "count": len(all)})
}

// handleGetSetting returns one setting by key.
func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, err := s.settings.Get(r.Context(), key)
	if errors.Is(err, storage.ErrSettingNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("loading setting failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "loading setting failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

// handleSetSetting creates or replaces one setting.
func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var body settingValue
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.settings.Set(r.Context(), key, body.Value); err != nil {
		s.logger.Error("saving setting failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "saving setting failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": body.Value})
}

// handleDeleteSetting removes one setting.
func (s *Server) handleDeleteSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := s.settings.Delete(r.Context(), key); err != nil {
		s.logger.Error("deleting setting failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "deleting setting failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
