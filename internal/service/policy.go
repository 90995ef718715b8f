package service

import (
	"sync"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/lifecycle"
	"edu_admin_backend/internal/model"
)

// Policies holds the per content kind behaviour. It is swapped when the config file is
// reloaded, so reads go through the lock.
type Policies struct {
	mu       sync.RWMutex
	content  config.ContentConfig
	delivery config.DeliveryConfig
}

func NewPolicies(content config.ContentConfig, delivery config.DeliveryConfig) *Policies {
	return &Policies{content: content, delivery: delivery}
}

// DefaultPolicies copies forward and expires overdue deliveries for both kinds.
func DefaultPolicies() *Policies {
	both := config.KindPolicy{CopyForward: true, ExpiredState: true}
	return NewPolicies(
		config.ContentConfig{Assessment: both, Survey: both},
		config.DeliveryConfig{
			NearExpiryDays:     lifecycle.DefaultNearExpiryDays,
			DefaultGroupSize:   10,
			DefaultCompanySize: 100,
		},
	)
}

func (p *Policies) Update(cfg *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = cfg.Content
	p.delivery = cfg.Delivery
}

func (p *Policies) CopyForward(kind model.ContentKind) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.content.Policy(string(kind)).CopyForward
}

func (p *Policies) Lifecycle(kind model.ContentKind) lifecycle.Policy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return lifecycle.PolicyFor(kind, p.content, p.delivery)
}

func (p *Policies) Delivery() config.DeliveryConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.delivery
}
