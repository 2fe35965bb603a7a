package auth

import (
	"context"
	"errors"
	"time"
)

// RunValidator re-validates the token every interval until ctx is done.
// A token the server no longer accepts is refreshed. It returns a non-nil
// error only when the token can no longer be recovered.
func (m *Manager) RunValidator(ctx context.Context, interval time.Duration) error {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}

		if err := m.revalidate(ctx); err != nil {
			if Permanent(err) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			m.log.Warn("Token validation failed, will retry", "error", err)
		}
	}
}

func (m *Manager) revalidate(ctx context.Context) error {
	m.mu.RLock()
	accessToken := m.tok.AccessToken
	gen := m.gen
	m.mu.RUnlock()

	v, err := m.Validate(ctx, accessToken)
	switch {
	case err == nil:
		m.mu.RLock()
		stale := m.gen != gen
		m.mu.RUnlock()
		if !stale {
			m.apply(v)
		}
		m.log.Debug("Token validated", "expires_in", v.ExpiresIn)
		return nil
	case errors.Is(err, ErrNotAuthorized):
		m.log.Warn("Token no longer valid, refreshing")
		return m.refreshFrom(ctx, gen)
	default:
		return err
	}
}
