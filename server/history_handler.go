package server

import (
	"net/http"
	"strconv"

	"TemplePlayer/logger"
	"TemplePlayer/model"
)

const defaultHistoryLimit = 20

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeErrorMessage(w, http.StatusNotFound, "play history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		logger.Error("[Server] list history failed", logger.ErrorField(err))
		writeErrorMessage(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if records == nil {
		records = []model.PlayRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
