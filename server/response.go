package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"TemplePlayer/core/player"
	"TemplePlayer/core/provider"
	"TemplePlayer/logger"
)

type errorResponse struct {
	Error string             `json:"error"`
	Kind  provider.ErrorKind `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[Server] write response failed", logger.ErrorField(err))
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps provider and routing failures onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: provider.KindOf(err)})
}

func statusFor(err error) int {
	if errors.Is(err, provider.ErrProviderNotFound) || errors.Is(err, provider.ErrNoProviderForScheme) {
		return http.StatusNotFound
	}
	switch provider.KindOf(err) {
	case provider.KindAuthRequired:
		return http.StatusUnauthorized
	case provider.KindContentUnavailable:
		return http.StatusNotFound
	case provider.KindNotSupported:
		return http.StatusNotImplemented
	case provider.KindNetworkError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// errorPayload is the websocket form of a controller error.
type errorPayload struct {
	Type    player.ErrorType   `json:"errorType"`
	Kind    provider.ErrorKind `json:"kind,omitempty"`
	Message string             `json:"message"`
}

func newErrorPayload(ev player.ErrorEvent) errorPayload {
	return errorPayload{Type: ev.Type, Kind: provider.KindOf(ev.Err), Message: ev.Err.Error()}
}

type providerErrorPayload struct {
	ProviderID string             `json:"providerId"`
	Kind       provider.ErrorKind `json:"kind,omitempty"`
	Message    string             `json:"message"`
}

func newProviderErrorPayload(ev provider.ProviderErrorEvent) providerErrorPayload {
	return providerErrorPayload{ProviderID: ev.ProviderID, Kind: ev.Kind(), Message: ev.Err.Error()}
}
