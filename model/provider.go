package model

// AuthStatus 认证状态
type AuthStatus string

const (
	AuthUnauthenticated AuthStatus = "unauthenticated"
	AuthAuthenticated   AuthStatus = "authenticated"
	AuthError           AuthStatus = "error"
)

// AuthState is owned by each provider. The registry only forwards changes.
type AuthState struct {
	Status    AuthStatus `json:"status"`
	UserLabel string     `json:"userLabel,omitempty"`
}

// Capabilities is declared once by a provider when it initializes.
// A caller must not invoke an optional operation whose flag is false.
type Capabilities struct {
	CanLocalFiles   bool `json:"canLocalFiles"`
	CanSearch       bool `json:"canSearch"`
	CanGetArtwork   bool `json:"canGetArtwork"`
	CanAuth         bool `json:"canAuth"`
	CanStreamHTTP   bool `json:"canStreamHttp"`
	SupportsHLS     bool `json:"supportsHls"`
	SupportsHeaders bool `json:"supportsHeaders"`
	SupportsDRM     bool `json:"supportsDrm"`
}
