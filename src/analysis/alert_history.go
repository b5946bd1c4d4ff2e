package analysis

import (
	"sync"
	"time"

	"trend-pulse/src/models"
	"trend-pulse/src/utils"
)

// AlertHistory is the capped, oldest-first record of raised alerts.
type AlertHistory struct {
	items *utils.RingBuffer[models.MAlert]
	mu    sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewAlertHistory(capacity int) *AlertHistory {
	return &AlertHistory{items: utils.NewRingBuffer[models.MAlert](capacity)}
}

// -----------------------------------------------------------------------------

// Add records an alert, evicting the oldest when full. Reports whether one was evicted.
func (h *AlertHistory) Add(alert models.MAlert) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, evicted := h.items.Append(alert.Clone())
	return evicted
}

// -----------------------------------------------------------------------------

// Acknowledge marks the alert with id acknowledged. Acknowledging twice is a
// no-op that still reports true; an unknown id reports false and changes nothing.
func (h *AlertHistory) Acknowledge(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	all := h.items.GetAll()
	found := -1
	for i := range all {
		if all[i].ID == id {
			found = i
			break
		}
	}
	if found < 0 {
		return false
	}
	if all[found].Acknowledged {
		return true
	}

	all[found].Acknowledged = true
	h.items.Clear()
	for _, a := range all {
		h.items.Append(a)
	}
	return true
}

// -----------------------------------------------------------------------------

// Unacknowledged returns copies of the open alerts, oldest first.
func (h *AlertHistory) Unacknowledged() []models.MAlert {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := []models.MAlert{}
	for _, a := range h.items.GetAll() {
		if !a.Acknowledged {
			result = append(result, a.Clone())
		}
	}
	return result
}

// -----------------------------------------------------------------------------

// All returns copies of every alert, oldest first.
func (h *AlertHistory) All() []models.MAlert {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := h.items.GetAll()
	for i := range all {
		all[i] = all[i].Clone()
	}
	return all
}

// -----------------------------------------------------------------------------

// Prune removes acknowledged alerts raised before cutoff. Returns how many went.
func (h *AlertHistory) Prune(cutoff time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.items.Filter(func(a models.MAlert) bool {
		return !a.Acknowledged || !a.Timestamp.Before(cutoff)
	})
}

// -----------------------------------------------------------------------------

func (h *AlertHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.items.Size()
}
