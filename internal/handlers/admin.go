// internal/handlers/admin.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/muscla87/cucu-telegram-game/internal/engine"
)

const maxSnapshotBytes = 64 << 10

// requireAdmin rejects requests without a valid bearer token.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sub, err := s.authority.AuthenticateJWT(token)
		if err != nil {
			s.logger.WithError(err).Warn("admin token rejected")
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		s.logger.WithField("admin", sub).WithField("path", r.URL.Path).Debug("admin request")
		next(w, r)
	}
}

// ExportStateHandler returns the chat's full snapshot, card values included.
func (s *Server) ExportStateHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Export(r.Context(), r.PathValue("key"))
	if err != nil {
		s.logger.WithError(err).Error("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ImportStateHandler validates the snapshot in the body and replaces the chat's game with it.
func (s *Server) ImportStateHandler(w http.ResponseWriter, r *http.Request) {
	var snap engine.Snapshot
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		// An unsupported phase fails inside decoding but is still a snapshot error.
		if errors.Is(err, engine.ErrInvalidSnapshot) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid snapshot: "+err.Error())
		return
	}

	if err := s.svc.Import(r.Context(), r.PathValue("key"), snap); err != nil {
		if errors.Is(err, engine.ErrInvalidSnapshot) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.WithError(err).Error("import failed")
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
