package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/contracts"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/metrics"
)

// Registry owns every live connection, grouped by channel. All membership
// mutation happens under the lock; sends happen against a snapshot so one
// slow peer cannot hold the lock for everyone else.
type Registry struct {
	mu      sync.RWMutex
	buckets map[string]map[contracts.Client]struct{}

	nodeID  string
	bridge  contracts.EventBridge
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewRegistry(log *slog.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		buckets: make(map[string]map[contracts.Client]struct{}),
		nodeID:  uuid.NewString(),
		log:     log,
		metrics: m,
	}
}

// bridgeFrame is the envelope relayed between nodes. Origin lets a node
// skip frames it published itself.
type bridgeFrame struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

// AttachBridge wires the optional cross-node relay and starts its receive
// loop. Frames from other nodes are delivered to the local bucket as-is.
func (r *Registry) AttachBridge(ctx context.Context, bridge contracts.EventBridge) error {
	r.bridge = bridge
	return bridge.Subscribe(ctx, func(channelKey string, raw []byte) {
		var frame bridgeFrame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Origin == r.nodeID {
			return
		}
		ch, err := domain.ParseChannel(channelKey)
		if err != nil {
			r.log.Warn("registry - bridge - bad channel key", "key", channelKey, "err", err)
			return
		}
		r.deliver(ctx, ch, frame.Data, nil)
	})
}

// Join registers the connection under its channel; the bucket is created
// lazily on first join.
func (r *Registry) Join(c contracts.Client) {
	key := c.Channel().String()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buckets[key] == nil {
		r.buckets[key] = make(map[contracts.Client]struct{})
	}
	r.buckets[key][c] = struct{}{}
	r.metrics.ActiveConnections.WithLabelValues(string(c.Channel().Kind)).Inc()
}

// Leave removes the connection. Idempotent: a second leave for the same
// client is a no-op. An emptied bucket is dropped so dead channels never
// accumulate.
func (r *Registry) Leave(c contracts.Client) {
	key := c.Channel().String()
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.buckets[key]
	if !ok {
		return
	}
	if _, member := bucket[c]; !member {
		return
	}
	delete(bucket, c)
	if len(bucket) == 0 {
		delete(r.buckets, key)
	}
	r.metrics.ActiveConnections.WithLabelValues(string(c.Channel().Kind)).Dec()
}

// Broadcast marshals event once and delivers it to every connection in ch
// except exclude. Send failures prune the failed connection and never abort
// delivery to the rest. When a bridge is attached the frame is also
// published for other nodes.
func (r *Registry) Broadcast(ctx context.Context, ch domain.Channel, event any, exclude contracts.Client) {
	data, err := json.Marshal(event)
	if err != nil {
		r.log.Error("registry - broadcast - marshal failed", "channel", ch.String(), "err", err)
		return
	}
	r.deliver(ctx, ch, data, exclude)
	if r.bridge != nil {
		frame, _ := json.Marshal(bridgeFrame{Origin: r.nodeID, Data: data})
		if err := r.bridge.Publish(ctx, ch.String(), frame); err != nil {
			r.log.Warn("registry - broadcast - bridge publish failed", "channel", ch.String(), "err", err)
		}
	}
}

// SendTo delivers event to a single connection. The caller decides whether
// a failure means the connection is gone.
func (r *Registry) SendTo(ctx context.Context, c contracts.Client, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := c.Send(ctx, data); err != nil {
		r.metrics.BroadcastFailures.Inc()
		return err
	}
	return nil
}

func (r *Registry) deliver(ctx context.Context, ch domain.Channel, data []byte, exclude contracts.Client) {
	key := ch.String()
	r.mu.RLock()
	targets := make([]contracts.Client, 0, len(r.buckets[key]))
	for c := range r.buckets[key] {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	var failed []contracts.Client
	for _, c := range targets {
		if err := c.Send(ctx, data); err != nil {
			// A connection that cannot accept a frame is treated as
			// already disconnected and pruned below.
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		r.metrics.BroadcastFailures.Inc()
		r.log.Debug("registry - deliver - pruning dead connection", "channel", key, "user_id", c.UserID())
		r.Leave(c)
		c.Close()
	}
}
