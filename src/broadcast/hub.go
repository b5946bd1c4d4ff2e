package broadcast

import (
	"sync"

	"github.com/google/uuid"

	"trend-pulse/src/interfaces"
	"trend-pulse/src/logger"
	"trend-pulse/src/metrics"
	"trend-pulse/src/models"
)

// Subscription is one registered interest in an event kind.
type Subscription struct {
	ID     string
	Kind   models.EventKind
	Handle interfaces.IDeliveryHandle
}

// UrgentSink receives events whose priority bypasses subscription filtering.
type UrgentSink interface {
	BroadcastUrgent(evt models.MStreamEvent)
}

// Hub is the subscriber registry keyed by subscriber id. Each entry holds
// the delivery handle of the connection that created it.
type Hub struct {
	Urgent            UrgentSink
	OnDeliveryFailure func(handle interfaces.IDeliveryHandle, err error)
	Logger            *logger.Logger
	Metrics           *metrics.Metrics

	mu       sync.RWMutex
	subs     map[string]Subscription
	byHandle map[string]map[string]struct{}
	urgent   map[models.Priority]bool
}

// -----------------------------------------------------------------------------

func NewHub(urgent []models.Priority, m *metrics.Metrics, log *logger.Logger) *Hub {
	set := make(map[models.Priority]bool, len(urgent))
	for _, p := range urgent {
		set[p] = true
	}
	return &Hub{
		Logger:   log,
		Metrics:  m,
		subs:     make(map[string]Subscription),
		byHandle: make(map[string]map[string]struct{}),
		urgent:   set,
	}
}

// -----------------------------------------------------------------------------

// Subscribe registers handle for events of kind and returns the subscriber id.
func (h *Hub) Subscribe(kind models.EventKind, handle interfaces.IDeliveryHandle) string {
	id := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.subs[id] = Subscription{ID: id, Kind: kind, Handle: handle}
	owned, ok := h.byHandle[handle.ID()]
	if !ok {
		owned = make(map[string]struct{})
		h.byHandle[handle.ID()] = owned
	}
	owned[id] = struct{}{}
	h.updateGauge()
	return id
}

// -----------------------------------------------------------------------------

// Unsubscribe removes a subscription. Reports whether it existed.
func (h *Hub) Unsubscribe(subscriberID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remove(subscriberID)
}

// -----------------------------------------------------------------------------

// UnsubscribeFor removes a subscription only if handleID owns it.
func (h *Hub) UnsubscribeFor(handleID, subscriberID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, owned := h.byHandle[handleID][subscriberID]; !owned {
		return false
	}
	return h.remove(subscriberID)
}

// -----------------------------------------------------------------------------

// RemoveHandle drops every subscription of a connection and returns how many.
func (h *Hub) RemoveHandle(handleID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	owned := h.byHandle[handleID]
	for id := range owned {
		delete(h.subs, id)
	}
	delete(h.byHandle, handleID)
	h.updateGauge()
	return len(owned)
}

// -----------------------------------------------------------------------------

func (h *Hub) remove(subscriberID string) bool {
	sub, ok := h.subs[subscriberID]
	if !ok {
		return false
	}
	delete(h.subs, subscriberID)

	handleID := sub.Handle.ID()
	delete(h.byHandle[handleID], subscriberID)
	if len(h.byHandle[handleID]) == 0 {
		delete(h.byHandle, handleID)
	}
	h.updateGauge()
	return true
}

// -----------------------------------------------------------------------------

// Count is the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// -----------------------------------------------------------------------------

// IsUrgent reports whether p bypasses subscription filtering.
func (h *Hub) IsUrgent(p models.Priority) bool {
	return h.urgent[p]
}

// -----------------------------------------------------------------------------

// Publish delivers evt to every subscriber of its kind and, for urgent
// priorities, to the urgent sink. A failed delivery drops that
// connection's subscriptions without affecting other subscribers.
func (h *Hub) Publish(evt models.MStreamEvent) {
	h.mu.RLock()
	targets := make([]Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.Kind == evt.Kind {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		msg := models.NewServerMessage(models.MsgStreamData, evt)
		msg.StreamType = string(evt.Kind)
		msg.SubscriberID = sub.ID

		if err := sub.Handle.Deliver(msg); err != nil {
			h.deliveryFailed(sub.Handle, err)
		}
	}

	if h.Urgent != nil && h.urgent[evt.Priority] {
		h.Urgent.BroadcastUrgent(evt)
	}
}

// -----------------------------------------------------------------------------

func (h *Hub) deliveryFailed(handle interfaces.IDeliveryHandle, err error) {
	removed := h.RemoveHandle(handle.ID())
	if removed == 0 {
		return
	}
	if h.Metrics != nil {
		h.Metrics.DeliveryFailures.Inc()
	}
	h.Logger.WithFields(logger.Fields{"connection_id": handle.ID(), "subscriptions": removed}).WithError(err).Warning("Delivery failed, subscriptions dropped")
	if h.OnDeliveryFailure != nil {
		h.OnDeliveryFailure(handle, err)
	}
}

// -----------------------------------------------------------------------------

func (h *Hub) updateGauge() {
	if h.Metrics != nil {
		h.Metrics.Subscriptions.Set(float64(len(h.subs)))
	}
}
