// Package settings resolves the effective store settings: the values saved
// from the back-office layered over configuration defaults.
package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"kkmt-store/models"
)

// DefaultStoreName is used when neither config nor settings name the store.
const DefaultStoreName = "Kuya Kardz Motorcycle Trading"

const fallbackSender = "no-reply@example.com"

// Effective is what mail and the back-office actually use.
type Effective struct {
	StoreEmail string `json:"storeEmail"`
	FromEmail  string `json:"fromEmail"`
	StoreName  string `json:"storeName"`
}

// Source loads the saved settings row.
type Source interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Defaults come from configuration.
type Defaults struct {
	StoreName  string
	StoreEmail string
	SMTPUser   string
	From       string
}

// Provider caches Effective for a TTL. Concurrent misses share one load.
type Provider struct {
	source   Source
	defaults Defaults
	ttl      time.Duration
	now      func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	cached  Effective
	expires time.Time
	valid   bool
	// gen counts invalidations; a load only stores its result if no
	// Invalidate happened while it ran.
	gen     uint64
}

func NewProvider(source Source, defaults Defaults, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Provider{source: source, defaults: defaults, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// Effective returns the cached settings, loading them when stale.
func (p *Provider) Effective(ctx context.Context) (Effective, error) {
	p.mu.RLock()
	if p.valid && p.now().Before(p.expires) {
		eff := p.cached
		p.mu.RUnlock()
		return eff, nil
	}
	p.mu.RUnlock()

	v, err, _ := p.group.Do("effective", func() (any, error) {
		p.mu.RLock()
		gen := p.gen
		p.mu.RUnlock()

		row, err := p.source.Get(ctx)
		if err != nil {
			return Effective{}, fmt.Errorf("load settings: %w", err)
		}
		eff := Resolve(row, p.defaults)

		p.mu.Lock()
		if p.gen == gen {
			p.cached = eff
			p.expires = p.now().Add(p.ttl)
			p.valid = true
		}
		p.mu.Unlock()
		return eff, nil
	})
	if err != nil {
		return Effective{}, err
	}
	return v.(Effective), nil
}

// Invalidate drops the cached value so the next read reloads it. A load
// already in flight is not cached and is not shared with later callers.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.valid = false
	p.gen++
	p.mu.Unlock()
	p.group.Forget("effective")
}

// Resolve layers the saved row over the defaults.
func Resolve(row models.Settings, d Defaults) Effective {
	name := strings.TrimSpace(d.StoreName)
	if name == "" {
		name = DefaultStoreName
	}

	storeEmail := strings.TrimSpace(row.StoreEmail)
	if storeEmail == "" {
		storeEmail = strings.TrimSpace(d.StoreEmail)
	}
	if storeEmail == "" {
		storeEmail = strings.TrimSpace(d.SMTPUser)
	}

	from := strings.TrimSpace(d.From)
	if from == "" {
		sender := strings.TrimSpace(d.SMTPUser)
		if sender == "" {
			sender = fallbackSender
		}
		from = fmt.Sprintf("%s <%s>", name, sender)
	}

	return Effective{StoreEmail: storeEmail, FromEmail: from, StoreName: name}
}
