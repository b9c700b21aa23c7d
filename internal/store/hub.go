package store

import (
	"sync"

	"github.com/fieldops/backend/internal/models"
)

// loadFunc re-evaluates a subscriber's query against the backing storage.
type loadFunc func(companyID string, q JobQuery) ([]models.Job, error)

// hub fans change notifications out to live-query subscribers. Slow
// consumers are coalesced: an undelivered snapshot is replaced by the newer
// one rather than queued behind it.
type hub struct {
	mu   sync.Mutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	companyID string
	query     JobQuery

	mu     sync.Mutex
	ch     chan []models.Job
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[int]*subscriber)}
}

func (h *hub) add(companyID string, q JobQuery) (*subscriber, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	sub := &subscriber{
		companyID: companyID,
		query:     q,
		ch:        make(chan []models.Job, 1),
	}
	h.subs[id] = sub

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()

		sub.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
		sub.mu.Unlock()
	}
	return sub, cancel
}

// broadcast pushes a fresh snapshot to every subscriber of the company.
func (h *hub) broadcast(companyID string, load loadFunc) {
	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		if s.companyID == companyID {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	for _, s := range targets {
		jobs, err := load(companyID, s.query)
		if err != nil {
			continue
		}
		s.push(jobs)
	}
}

func (s *subscriber) push(jobs []models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- jobs:
			return
		default:
			// Drop the stale snapshot so the newer one wins.
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
