// Package autologin turns a plain site URL into one that opens with the
// user's session already established, using a single-use key from
// tool_mobile_get_autologin_key. It never fails: when no key can be had the
// original URL comes back unchanged.
package autologin

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/five82/lectern/internal/metrics"
	"github.com/five82/lectern/internal/moodle"
)

// KeyRequester issues autologin keys.
type KeyRequester interface {
	AutologinKey(ctx context.Context) (moodle.AutologinKey, error)
}

var _ KeyRequester = (*moodle.Client)(nil)

const defaultTimeout = 8 * time.Second

// Bridge wraps target URLs in autologin redirects.
type Bridge struct {
	keys    KeyRequester
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Bridge. A zero timeout uses the 8s default.
func New(keys KeyRequester, timeout time.Duration, logger *slog.Logger) *Bridge {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{keys: keys, timeout: timeout, logger: logger.With("component", "autologin")}
}

// URL returns {autologinurl}?key={key}&url={target}, or target itself when
// the key request fails, times out, or yields nothing usable. Keys are
// never cached.
func (b *Bridge) URL(ctx context.Context, target string) string {
	if b == nil || b.keys == nil || target == "" {
		return target
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	key, err := b.keys.AutologinKey(ctx)
	if err != nil {
		metrics.AutologinTotal.WithLabelValues("fallback").Inc()
		b.logger.Warn("autologin key unavailable, using plain url", "target", target, "error", err)
		return target
	}
	if key.Key == "" || key.AutologinURL == "" {
		metrics.AutologinTotal.WithLabelValues("fallback").Inc()
		b.logger.Warn("autologin response incomplete, using plain url", "target", target)
		return target
	}
	metrics.AutologinTotal.WithLabelValues("bridged").Inc()
	return key.AutologinURL + "?key=" + url.QueryEscape(key.Key) + "&url=" + url.QueryEscape(target)
}
