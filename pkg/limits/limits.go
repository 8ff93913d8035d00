// Package limits gates access to the embedding classifier. ONNX
// inference holds significant memory per call, so the gateway bounds
// how many analyses may run the classifier at once; callers that miss
// a slot fall back to rules-only scoring instead of queueing.
package limits

import (
	"context"
	"sync/atomic"
)

// InferenceGate bounds concurrent classifier calls.
type InferenceGate struct {
	slots     chan struct{}
	fallbacks atomic.Int64
}

// NewInferenceGate creates a gate with the given capacity.
func NewInferenceGate(capacity int) *InferenceGate {
	if capacity <= 0 {
		capacity = 4
	}
	return &InferenceGate{
		slots: make(chan struct{}, capacity),
	}
}

// TryEnter claims a slot without blocking. A false return means the
// gate is saturated and the caller should score rules-only.
func (g *InferenceGate) TryEnter() bool {
	select {
	case g.slots <- struct{}{}:
		return true
	default:
		g.fallbacks.Add(1)
		return false
	}
}

// Enter blocks until a slot is available or the context is cancelled.
func (g *InferenceGate) Enter(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave returns a slot. Must follow a successful TryEnter or Enter.
func (g *InferenceGate) Leave() {
	select {
	case <-g.slots:
	default:
	}
}

// Stats returns current gate metrics for the health endpoint.
func (g *InferenceGate) Stats() GateStats {
	return GateStats{
		Capacity:  cap(g.slots),
		InUse:     len(g.slots),
		Fallbacks: g.fallbacks.Load(),
	}
}

// GateStats reports how often analyses skipped the classifier because
// all slots were busy.
type GateStats struct {
	Capacity  int   `json:"capacity"`
	InUse     int   `json:"in_use"`
	Fallbacks int64 `json:"fallbacks"`
}
