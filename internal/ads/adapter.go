package ads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/antoniostano/vidranker/internal/observability"
)

type Network string

const (
	NetworkAdMob Network = "admob"
	NetworkMeta  Network = "meta"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateFailed        State = "failed"
	StateDestroyed     State = "destroyed"
)

var (
	ErrNotReady       = errors.New("ad adapter not ready")
	ErrCooldown       = errors.New("interstitial in cooldown period")
	ErrDestroyed      = errors.New("ad adapter destroyed")
	ErrUnknownNetwork = errors.New("unknown ad network")
	ErrNoNativeSDK    = errors.New("native ad sdk not available on this platform")
)

const DefaultInterstitialCooldown = 30 * time.Second

// Placement holds the per-network identifiers handed to the native SDK.
type Placement struct {
	Network        Network `json:"network"`
	AppID          string  `json:"app_id"`
	BannerID       string  `json:"banner_id"`
	InterstitialID string  `json:"interstitial_id"`
	Testing        bool    `json:"testing"`
}

// Bridge is the native SDK seam. Implementations perform the platform call
// for the given placement and report failure as an error.
type Bridge interface {
	Initialize(ctx context.Context, p Placement) error
	ShowBanner(ctx context.Context, p Placement) error
	HideBanner(ctx context.Context, p Placement) error
	ShowInterstitial(ctx context.Context, p Placement) error
}

// Adapter is the lifecycle-aware view of one ad network.
type Adapter interface {
	Initialize(ctx context.Context) error
	ShowBanner(ctx context.Context) error
	ShowInterstitial(ctx context.Context) error
	HideBanner(ctx context.Context) error
	Destroy(ctx context.Context) error
	Status() Status
}

type Status struct {
	Network          Network    `json:"network"`
	State            State      `json:"state"`
	BannerVisible    bool       `json:"banner_visible"`
	LastError        string     `json:"last_error,omitempty"`
	LastInterstitial *time.Time `json:"last_interstitial,omitempty"`
}

type Options struct {
	Cooldown time.Duration
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// NetworkAdapter drives one network through
// uninitialized -> initializing -> ready|failed -> destroyed.
// A failed adapter may be initialized again; destroyed is terminal.
type NetworkAdapter struct {
	placement Placement
	bridge    Bridge
	cooldown  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	now       func() time.Time

	mu               sync.Mutex
	state            State
	bannerVisible    bool
	lastErr          error
	lastInterstitial time.Time
}

// NewAdapter builds an adapter. A nil bridge means no native SDK is present,
// so Initialize moves the adapter to failed.
func NewAdapter(placement Placement, bridge Bridge, opts Options) *NetworkAdapter {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultInterstitialCooldown
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &NetworkAdapter{
		placement: placement,
		bridge:    bridge,
		cooldown:  opts.Cooldown,
		logger:    opts.Logger.With("network", string(placement.Network)),
		metrics:   opts.Metrics,
		now:       time.Now,
		state:     StateUninitialized,
	}
}

func (a *NetworkAdapter) Network() Network { return a.placement.Network }

func (a *NetworkAdapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case StateReady:
		a.mu.Unlock()
		return nil
	case StateDestroyed:
		a.mu.Unlock()
		return ErrDestroyed
	case StateInitializing:
		a.mu.Unlock()
		return fmt.Errorf("%w: initialization in progress", ErrNotReady)
	}
	a.state = StateInitializing
	a.mu.Unlock()

	err := ErrNoNativeSDK
	if a.bridge != nil {
		err = a.bridge.Initialize(ctx, a.placement)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateDestroyed {
		return ErrDestroyed
	}
	if err != nil {
		a.state = StateFailed
		a.lastErr = err
		a.logger.Warn("ad network initialization failed", "error", err)
		a.metrics.ObserveAdEvent(string(a.placement.Network), "init_failed")
		return fmt.Errorf("initialize %s: %w", a.placement.Network, err)
	}
	a.state = StateReady
	a.lastErr = nil
	a.logger.Info("ad network initialized")
	a.metrics.ObserveAdEvent(string(a.placement.Network), "initialized")
	return nil
}

func (a *NetworkAdapter) ShowBanner(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireReady(); err != nil {
		return err
	}
	if a.bannerVisible {
		return nil
	}
	if err := a.bridge.ShowBanner(ctx, a.placement); err != nil {
		return a.fail("banner", err)
	}
	a.bannerVisible = true
	a.metrics.ObserveAdEvent(string(a.placement.Network), "banner_shown")
	return nil
}

func (a *NetworkAdapter) HideBanner(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.bannerVisible || a.state != StateReady {
		return nil
	}
	if err := a.bridge.HideBanner(ctx, a.placement); err != nil {
		return a.fail("hide_banner", err)
	}
	a.bannerVisible = false
	a.metrics.ObserveAdEvent(string(a.placement.Network), "banner_hidden")
	return nil
}

// ShowInterstitial shows a full-screen ad unless one was shown within the
// cooldown. Only successful shows start a new cooldown.
func (a *NetworkAdapter) ShowInterstitial(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireReady(); err != nil {
		return err
	}
	now := a.now()
	if !a.lastInterstitial.IsZero() && now.Sub(a.lastInterstitial) < a.cooldown {
		a.metrics.ObserveAdEvent(string(a.placement.Network), "interstitial_cooldown")
		return ErrCooldown
	}
	if err := a.bridge.ShowInterstitial(ctx, a.placement); err != nil {
		return a.fail("interstitial", err)
	}
	a.lastInterstitial = now
	a.metrics.ObserveAdEvent(string(a.placement.Network), "interstitial_shown")
	return nil
}

// Destroy hides any visible banner and makes the adapter unusable.
func (a *NetworkAdapter) Destroy(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateDestroyed {
		return nil
	}
	var err error
	if a.bannerVisible && a.bridge != nil {
		err = a.bridge.HideBanner(ctx, a.placement)
	}
	a.bannerVisible = false
	a.state = StateDestroyed
	a.metrics.ObserveAdEvent(string(a.placement.Network), "destroyed")
	return err
}

func (a *NetworkAdapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := Status{
		Network:       a.placement.Network,
		State:         a.state,
		BannerVisible: a.bannerVisible,
	}
	if a.lastErr != nil {
		st.LastError = a.lastErr.Error()
	}
	if !a.lastInterstitial.IsZero() {
		t := a.lastInterstitial
		st.LastInterstitial = &t
	}
	return st
}

func (a *NetworkAdapter) requireReady() error {
	switch a.state {
	case StateReady:
		return nil
	case StateDestroyed:
		return ErrDestroyed
	default:
		return fmt.Errorf("%w: state %s", ErrNotReady, a.state)
	}
}

// fail records a bridge error for an operation. The adapter stays ready.
func (a *NetworkAdapter) fail(op string, err error) error {
	a.lastErr = err
	a.logger.Warn("ad operation failed", "op", op, "error", err)
	a.metrics.ObserveAdEvent(string(a.placement.Network), op+"_failed")
	return fmt.Errorf("%s %s: %w", a.placement.Network, op, err)
}
