package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// AuthState is the session slice
type AuthState struct {
	User            *models.User  `json:"user"`
	Token           string        `json:"token"`
	Role            models.Role   `json:"role"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	ProfileComplete bool          `json:"profileComplete"`
	Status          RequestStatus `json:"status"`
}

func (s AuthState) clone() AuthState {
	s.User = s.User.Clone()
	return s
}

// ProfileGateway is the backend surface the auth container needs
type ProfileGateway interface {
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error)
}

// Auth holds identity, role and profile completeness
type Auth struct {
	mu       sync.RWMutex
	gw       ProfileGateway
	policy   ProfilePolicy
	rederive bool
	state    AuthState
	epoch    uint64
	changed  hook
}

// AuthOption configures the auth container
type AuthOption func(*Auth)

// WithProfilePolicy sets which fields make a profile complete
func WithProfilePolicy(p ProfilePolicy) AuthOption {
	return func(a *Auth) {
		a.policy = p
	}
}

// WithRederiveOnSave makes UpdateProfile derive completeness from the
// returned user instead of marking the profile complete unconditionally.
func WithRederiveOnSave() AuthOption {
	return func(a *Auth) {
		a.rederive = true
	}
}

// NewAuth creates the auth container
func NewAuth(gw ProfileGateway, opts ...AuthOption) *Auth {
	a := &Auth{
		gw:     gw,
		policy: StandardProfile,
		state:  AuthState{Status: idle()},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the active profile policy
func (a *Auth) Policy() ProfilePolicy {
	return a.policy
}

// LoginSuccess stores the session. Completeness is derived from the user
// against the policy; whatever the backend claims is not trusted.
func (a *Auth) LoginSuccess(user models.User, token string, role models.Role) {
	a.mu.Lock()
	a.state = AuthState{
		User:            user.Clone(),
		Token:           token,
		Role:            role,
		IsAuthenticated: true,
		ProfileComplete: a.policy.Complete(user),
		Status:          idle(),
	}
	a.mu.Unlock()

	slog.Info("session started", "user_id", user.ID, "role", role)
	a.changed.fire()
}

// UpdateProfile sends a partial update and replaces the local user with the
// backend's copy. On failure the previous user is kept as is.
func (a *Auth) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	a.mu.Lock()
	if a.state.User == nil {
		a.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	a.state.Status = loading()
	epoch := a.epoch
	a.mu.Unlock()
	a.changed.fire()

	user, err := a.gw.UpdateProfile(ctx, update)

	a.mu.Lock()
	if epoch != a.epoch {
		a.mu.Unlock()
		return nil, ErrStaleResult
	}
	if err != nil {
		a.state.Status = failed(err)
		a.mu.Unlock()
		a.changed.fire()
		return nil, fmt.Errorf("update profile: %w", err)
	}

	a.state.User = user.Clone()
	if a.rederive {
		a.state.ProfileComplete = a.policy.Complete(*user)
	} else {
		// Saving through this path counts as completing the profile.
		a.state.ProfileComplete = true
		if missing := a.policy.Missing(*user); len(missing) > 0 {
			slog.Warn("profile saved while incomplete under policy",
				"user_id", user.ID,
				"policy", a.policy.Name,
				"missing", missing,
			)
		}
	}
	a.state.Status = succeeded()
	a.mu.Unlock()
	a.changed.fire()

	return user.Clone(), nil
}

// UpdateDomains replaces the selected domain ids without a round trip
func (a *Auth) UpdateDomains(domainIDs []string) {
	a.mu.Lock()
	if a.state.User == nil {
		a.mu.Unlock()
		return
	}
	a.state.User.SelectedDomainIDs = models.RefsOf(domainIDs)
	a.state.ProfileComplete = true
	a.mu.Unlock()
	a.changed.fire()
}

// SyncUser adopts a user returned by another operation (e.g. applying
// domains) without touching completeness or status.
func (a *Auth) SyncUser(user models.User) {
	a.mu.Lock()
	if !a.state.IsAuthenticated {
		a.mu.Unlock()
		return
	}
	a.state.User = user.Clone()
	a.mu.Unlock()
	a.changed.fire()
}

// Logout clears the session. Callers must also reset the other containers;
// Store.Logout does both.
func (a *Auth) Logout() {
	a.mu.Lock()
	a.state = AuthState{Status: idle()}
	a.epoch++
	a.mu.Unlock()
	a.changed.fire()
}

// State returns a copy of the slice
func (a *Auth) State() AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.clone()
}

// Token implements client.TokenSource
func (a *Auth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Token
}

// SelectedDomainIDs returns the confirmed selection of the signed-in user
func (a *Auth) SelectedDomainIDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.state.User == nil {
		return nil
	}
	return a.state.User.SelectedDomainIDs.Strings()
}

// SessionExpired reports whether the session token carries an exp claim in
// the past. Opaque tokens never expire from the client's point of view.
func (a *Auth) SessionExpired(now time.Time) bool {
	a.mu.RLock()
	token := a.state.Token
	a.mu.RUnlock()

	exp, ok := tokenExpiry(token)
	return ok && !now.Before(exp)
}

// tokenExpiry reads exp without verifying the signature; verification is
// the backend's job.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (a *Auth) restore(s AuthState) {
	s = s.clone()
	s.Status = settle(s.Status)
	a.mu.Lock()
	a.state = s
	a.epoch++
	a.mu.Unlock()
}
