package analysis

import (
	"sync"

	"trend-pulse/src/models"
	"trend-pulse/src/utils"
)

// RecommendationQueue rotates recommendations out oldest first once full.
type RecommendationQueue struct {
	items *utils.RingBuffer[models.MRecommendation]
	mu    sync.RWMutex
}

func NewRecommendationQueue(capacity int) *RecommendationQueue {
	return &RecommendationQueue{items: utils.NewRingBuffer[models.MRecommendation](capacity)}
}

// Add enqueues rec. Reports whether the oldest entry rotated out.
func (q *RecommendationQueue) Add(rec models.MRecommendation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, rotated := q.items.Append(rec)
	return rotated
}

// Pending returns the queued recommendations still waiting on a decision.
func (q *RecommendationQueue) Pending() []models.MRecommendation {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := []models.MRecommendation{}
	for _, r := range q.items.GetAll() {
		if r.Pending() {
			result = append(result, r)
		}
	}
	return result
}

func (q *RecommendationQueue) All() []models.MRecommendation {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.items.GetAll()
}

func (q *RecommendationQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.items.Size()
}
