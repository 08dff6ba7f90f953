package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"lending/handler/render"

	"github.com/twitchtv/twirp"
	"golang.org/x/time/rate"
)

const idleTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter per client token bucket
type Limiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// New limiter allowing perMinute requests with burst per client ip
func New(perMinute float64, burst int) *Limiter {
	perSecond := perMinute / 60
	if perSecond <= 0 {
		perSecond = 1
	}

	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		visitors: map[string]*visitor{},
		now:      time.Now,
	}
}

// Handle rate limit middleware
func (l *Limiter) Handle(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientID(r)) {
			render.Error(w, twirp.NewError(twirp.ResourceExhausted, "too many requests"))
			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

func (l *Limiter) allow(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[id]
	if !ok {
		l.sweep(now)
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[id] = v
	}

	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drop visitors idle for longer than idleTTL, mu must be held
func (l *Limiter) sweep(now time.Time) {
	for id, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleTTL {
			delete(l.visitors, id)
		}
	}
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
