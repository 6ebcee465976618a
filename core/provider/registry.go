package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"TemplePlayer/core/event"
	"TemplePlayer/logger"
	"TemplePlayer/model"
)

// LocalProviderID is the id of the local-files provider. Bare paths route to it.
const LocalProviderID = "local"

// AuthStateEvent is published when a provider's authentication state changes.
type AuthStateEvent struct {
	ProviderID string          `json:"providerId"`
	State      model.AuthState `json:"state"`
}

// ProviderErrorEvent is published when a provider fails outside a direct call.
type ProviderErrorEvent struct {
	ProviderID string
	Err        error
}

// Kind returns the provider error kind of the event, "" if the cause is not a provider error.
func (e ProviderErrorEvent) Kind() ErrorKind { return KindOf(e.Err) }

// Registry 管理所有音乐来源
// It owns the provider instances, the active provider, and the routing from
// descriptor schemes to providers.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	order       []string
	initialized map[string]bool
	closed      map[string]bool
	active      Provider

	authBus  event.Bus[AuthStateEvent]
	errorBus event.Bus[ProviderErrorEvent]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers:   make(map[string]Provider),
		initialized: make(map[string]bool),
		closed:      make(map[string]bool),
	}
}

// RegisterProvider 注册来源. An existing provider with the same id is replaced in place.
func (r *Registry) RegisterProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ID()
	if _, exists := r.providers[id]; !exists {
		r.order = append(r.order, id)
	}
	r.providers[id] = p
	delete(r.initialized, id)
	delete(r.closed, id)
	if r.active != nil && r.active.ID() == id {
		r.active = p
	}
	logger.Debug("[Registry] provider registered", logger.String("provider", id))
}

// Initialize initializes every registered provider that has not been
// initialized yet, sequentially in registration order. A failing provider is
// reported as a ProviderError event and does not stop the others.
// Once the local provider is initialized it becomes the active provider,
// replacing any earlier selection.
func (r *Registry) Initialize(ctx context.Context) {
	for _, p := range r.pending() {
		caps, err := p.Initialize(ctx)
		if err != nil {
			logger.Error("[Registry] provider initialize failed",
				logger.String("provider", p.ID()),
				logger.ErrorField(err))
			r.EmitProviderError(p.ID(), err)
			continue
		}

		r.mu.Lock()
		// the provider may have been replaced while it was initializing
		if r.providers[p.ID()] == p {
			r.initialized[p.ID()] = true
		}
		r.mu.Unlock()

		logger.Info("[Registry] provider initialized",
			logger.String("provider", p.ID()),
			logger.Any("capabilities", caps))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if local, ok := r.providers[LocalProviderID]; ok && r.initialized[LocalProviderID] {
		r.active = local
	}
}

func (r *Registry) pending() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	for _, id := range r.order {
		if !r.initialized[id] && !r.closed[id] {
			out = append(out, r.providers[id])
		}
	}
	return out
}

// Shutdown shuts down every initialized provider, continuing past failures.
// The returned error joins the individual failures.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	var targets []Provider
	for _, id := range r.order {
		if r.initialized[id] {
			targets = append(targets, r.providers[id])
			delete(r.initialized, id)
			r.closed[id] = true
		}
	}
	r.mu.Unlock()

	var errs []error
	for _, p := range targets {
		if err := p.Shutdown(ctx); err != nil {
			logger.Warn("[Registry] provider shutdown failed",
				logger.String("provider", p.ID()),
				logger.ErrorField(err))
			errs = append(errs, fmt.Errorf("shutdown %s: %w", p.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Provider returns the provider registered under id.
func (r *Registry) Provider(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// SetActiveProvider 设置当前来源
func (r *Registry) SetActiveProvider(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	r.active = p
	return nil
}

// ActiveProvider 获取当前来源
func (r *Registry) ActiveProvider() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return nil, ErrNoActiveProvider
	}
	return r.active, nil
}

// ProviderForDescriptor routes a descriptor to the provider owning its scheme.
// A descriptor without ':' is a local file path.
func (r *Registry) ProviderForDescriptor(descriptor string) (Provider, error) {
	scheme := LocalProviderID
	if strings.Contains(descriptor, ":") {
		scheme = model.SchemeOf(descriptor)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProviderForScheme, scheme)
	}
	return p, nil
}

// SubscribeAuthStateChanged registers fn for auth state changes of any provider.
func (r *Registry) SubscribeAuthStateChanged(fn func(AuthStateEvent)) (unsubscribe func()) {
	return r.authBus.Subscribe(fn)
}

// SubscribeProviderError registers fn for provider errors.
func (r *Registry) SubscribeProviderError(fn func(ProviderErrorEvent)) (unsubscribe func()) {
	return r.errorBus.Subscribe(fn)
}

// EmitAuthStateChanged rebroadcasts a provider's auth state change.
func (r *Registry) EmitAuthStateChanged(providerID string, state model.AuthState) {
	r.authBus.Publish(AuthStateEvent{ProviderID: providerID, State: state})
}

// EmitProviderError rebroadcasts a provider failure.
func (r *Registry) EmitProviderError(providerID string, err error) {
	r.errorBus.Publish(ProviderErrorEvent{ProviderID: providerID, Err: err})
}

func (r *Registry) lookup(id string) (Provider, error) {
	p, ok := r.Provider(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return p, nil
}

// BeginAuth starts authentication on a provider that declares CanAuth and
// publishes the resulting auth state.
func (r *Registry) BeginAuth(ctx context.Context, id string) error {
	p, err := r.lookup(id)
	if err != nil {
		return err
	}
	if !p.Capabilities().CanAuth {
		return NewError(KindNotSupported, "provider %s does not support authentication", id)
	}
	if err := p.BeginAuth(ctx); err != nil {
		r.EmitProviderError(id, err)
		return err
	}
	r.EmitAuthStateChanged(id, p.AuthState())
	return nil
}

// EndAuth clears authentication on a provider that declares CanAuth.
func (r *Registry) EndAuth(ctx context.Context, id string) error {
	p, err := r.lookup(id)
	if err != nil {
		return err
	}
	if !p.Capabilities().CanAuth {
		return NewError(KindNotSupported, "provider %s does not support authentication", id)
	}
	if err := p.EndAuth(ctx); err != nil {
		r.EmitProviderError(id, err)
		return err
	}
	r.EmitAuthStateChanged(id, p.AuthState())
	return nil
}

// Search runs a catalog search on a provider that declares CanSearch.
func (r *Registry) Search(ctx context.Context, id, query, cursor string) (model.SearchResult, error) {
	p, err := r.lookup(id)
	if err != nil {
		return model.SearchResult{}, err
	}
	if !p.Capabilities().CanSearch {
		return model.SearchResult{}, NewError(KindNotSupported, "provider %s does not support search", id)
	}
	return p.SearchTracks(ctx, query, cursor)
}

// ArtworkURL resolves artwork through the provider owning trackID.
func (r *Registry) ArtworkURL(ctx context.Context, trackID string, size int) (string, error) {
	p, err := r.ProviderForDescriptor(trackID)
	if err != nil {
		return "", err
	}
	if !p.Capabilities().CanGetArtwork {
		return "", NewError(KindNotSupported, "provider %s does not provide artwork", p.ID())
	}
	return p.ArtworkURL(ctx, trackID, size)
}

// ResolveLocalPaths turns filesystem paths into tracks through the local provider.
func (r *Registry) ResolveLocalPaths(ctx context.Context, paths []string) ([]model.Track, error) {
	p, err := r.lookup(LocalProviderID)
	if err != nil {
		return nil, err
	}
	if !p.Capabilities().CanLocalFiles {
		return nil, NewError(KindNotSupported, "provider %s does not resolve local files", p.ID())
	}
	return p.ResolveFromLocalPaths(ctx, paths)
}

// PlaybackSource resolves a descriptor through its owning provider.
// A bare path is treated as "local:<path>".
func (r *Registry) PlaybackSource(ctx context.Context, descriptor string) (model.PlaybackSource, error) {
	p, err := r.ProviderForDescriptor(descriptor)
	if err != nil {
		return model.PlaybackSource{}, err
	}
	if !strings.Contains(descriptor, ":") {
		descriptor = LocalProviderID + ":" + descriptor
	}
	return p.PlaybackSource(ctx, descriptor)
}
