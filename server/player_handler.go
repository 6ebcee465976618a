package server

import (
	"context"
	"net/http"
	"strings"

	"TemplePlayer/core/provider"
	"TemplePlayer/logger"
	"TemplePlayer/model"

	"github.com/gorilla/mux"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.player.State())
}

// handleTransport handles play, pause, toggle, next and previous.
func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	ctx := r.Context()
	switch action {
	case "play":
		s.player.Play(ctx)
	case "pause":
		s.player.Pause()
	case "toggle":
		s.player.Toggle(ctx)
	case "next":
		s.player.Next(ctx)
	case "previous":
		s.player.Previous(ctx)
	}
	logger.Debug("[Server] transport command", logger.String("action", action))
	writeJSON(w, http.StatusOK, s.player.State())
}

type seekRequest struct {
	Ms *int64 `json:"ms"`
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Ms == nil {
		writeErrorMessage(w, http.StatusBadRequest, "ms is required")
		return
	}
	s.player.Seek(*req.Ms)
	writeJSON(w, http.StatusOK, s.player.State())
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Volume == nil {
		writeErrorMessage(w, http.StatusBadRequest, "volume is required")
		return
	}
	s.player.SetVolume(*req.Volume)
	writeJSON(w, http.StatusOK, s.player.State())
}

type mutedRequest struct {
	Muted *bool `json:"muted"`
}

func (s *Server) handleMuted(w http.ResponseWriter, r *http.Request) {
	var req mutedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Muted == nil {
		writeErrorMessage(w, http.StatusBadRequest, "muted is required")
		return
	}
	s.player.SetMuted(*req.Muted)
	writeJSON(w, http.StatusOK, s.player.State())
}

// queueRequest replaces the queue. Paths go through the local provider.
// Descriptors are routed to their provider; tracks come from a search result
// and are used as they are once their id routes.
type queueRequest struct {
	Paths       []string      `json:"paths"`
	Descriptors []string      `json:"descriptors"`
	Tracks      []model.Track `json:"tracks"`
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx := r.Context()

	var tracks []model.Track
	if len(req.Paths) > 0 {
		resolved, err := s.registry.ResolveLocalPaths(ctx, req.Paths)
		if err != nil {
			writeError(w, err)
			return
		}
		tracks = append(tracks, resolved...)
	}
	for _, d := range req.Descriptors {
		t, err := s.trackForDescriptor(ctx, d)
		if err != nil {
			writeError(w, err)
			return
		}
		tracks = append(tracks, t)
	}
	for _, t := range req.Tracks {
		p, err := s.registry.ProviderForDescriptor(t.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if t.ProviderID == "" {
			t.ProviderID = p.ID()
		}
		tracks = append(tracks, t)
	}

	s.player.LoadQueue(ctx, tracks)
	writeJSON(w, http.StatusOK, s.player.State())
}

// trackForDescriptor builds a queue entry from a bare descriptor. Local
// descriptors carry their metadata in the file name; other providers only
// get an id-derived title.
func (s *Server) trackForDescriptor(ctx context.Context, d string) (model.Track, error) {
	p, err := s.registry.ProviderForDescriptor(d)
	if err != nil {
		return model.Track{}, err
	}
	if p.ID() == provider.LocalProviderID {
		path := strings.TrimPrefix(d, provider.LocalProviderID+":")
		resolved, err := s.registry.ResolveLocalPaths(ctx, []string{path})
		if err != nil {
			return model.Track{}, err
		}
		if len(resolved) == 1 {
			return resolved[0], nil
		}
	}
	return model.Track{
		ID:         d,
		Title:      strings.TrimPrefix(d, p.ID()+":"),
		ProviderID: p.ID(),
	}, nil
}
