package handlers

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"
)

// LoginLimiter throttles sign-in attempts per client IP with a token bucket.
// X-Forwarded-For is only read when the direct peer is a trusted proxy.
type LoginLimiter struct {
	mu      sync.Mutex
	rate    float64
	burst   float64
	bucket  map[string]*bucket
	trusted []netip.Prefix
	now     func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewLoginLimiter(perMinute, burst int, trustedProxies ...netip.Prefix) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &LoginLimiter{
		rate:   float64(perMinute) / 60.0,
		burst:  float64(burst),
		bucket:  make(map[string]*bucket),
		trusted: trustedProxies,
		now:     time.Now,
	}
}

// Allow takes one token for key.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.bucket[key]
	if !ok {
		l.bucket[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(l.burst, b.tokens+elapsed*l.rate)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Sweep drops buckets untouched for longer than idle.
func (l *LoginLimiter) Sweep(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	for k, b := range l.bucket {
		if b.last.Before(cutoff) {
			delete(l.bucket, k)
		}
	}
}

// AllowRequest takes one token for the request's client.
func (l *LoginLimiter) AllowRequest(r *http.Request) bool {
	return l.Allow(l.ClientIP(r))
}

// ClientIP is the socket peer, unless that peer is a trusted proxy: then the
// right-most X-Forwarded-For hop that is not itself trusted.
func (l *LoginLimiter) ClientIP(r *http.Request) string {
	peer := remoteIP(r.RemoteAddr)
	if !l.isTrusted(peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !l.isTrusted(hop) {
			return hop
		}
		peer = hop
	}
	return peer
}

func (l *LoginLimiter) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
