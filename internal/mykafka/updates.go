package mykafka

import (
	"context"
	"time"

	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// Update is the change notification pushed to connected storefronts.
type Update struct {
	Tenant string         `json:"tenant,omitempty"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
	At     time.Time      `json:"at"`
}

type Broadcaster struct {
	Pub   Publisher
	Topic string
}

// Emit publishes an update keyed by tenant. Failures are logged only; the
// state change has already been committed.
func (b *Broadcaster) Emit(ctx context.Context, tenant, entity, action string, data map[string]any) {
	if b == nil || b.Pub == nil {
		return
	}
	u := Update{Tenant: tenant, Entity: entity, Action: action, Data: data, At: time.Now().UTC()}
	key := tenant
	if key == "" {
		key = "default"
	}
	if err := b.Pub.PublishEvent(ctx, b.Topic, key, u); err != nil {
		logging.FromContext(ctx).Error("publish_update_failed", "entity", entity, "action", action, "error", err)
	}
}
