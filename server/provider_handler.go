package server

import (
	"net/http"
	"strings"

	"TemplePlayer/core/provider"
	"TemplePlayer/model"

	"github.com/gorilla/mux"
)

type providerInfo struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Active       bool               `json:"active"`
	Capabilities model.Capabilities `json:"capabilities"`
	Auth         model.AuthState    `json:"auth"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	activeID := ""
	if active, err := s.registry.ActiveProvider(); err == nil {
		activeID = active.ID()
	}

	providers := s.registry.Providers()
	out := make([]providerInfo, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerInfo{
			ID:           p.ID(),
			Name:         p.Name(),
			Active:       p.ID() == activeID,
			Capabilities: p.Capabilities(),
			Auth:         p.AuthState(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErrorMessage(w, http.StatusBadRequest, "q is required")
		return
	}

	res, err := s.registry.Search(r.Context(), id, query, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Tracks == nil {
		res.Tracks = []model.Track{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBeginAuth(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.registry.BeginAuth(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.writeAuthState(w, id)
}

func (s *Server) handleEndAuth(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.registry.EndAuth(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.writeAuthState(w, id)
}

func (s *Server) writeAuthState(w http.ResponseWriter, id string) {
	p, ok := s.registry.Provider(id)
	if !ok {
		writeErrorMessage(w, http.StatusNotFound, provider.ErrProviderNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, provider.AuthStateEvent{ProviderID: id, State: p.AuthState()})
}
