package storage

import (
	"context"
	"sync"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

// FetchFunc loads the current logs for a subscription
type FetchFunc func(ctx context.Context) ([]models.HabitLog, error)

type subKey struct {
	userID string
	date   string
}

type subscriber struct {
	signal chan struct{}
	exited chan struct{}
	cancel context.CancelFunc
}

// Hub fans change notifications out to SubscribeLogsForDate subscribers. Backends that
// have no native change feed call Notify after every write; each subscriber re-reads
// the date through its FetchFunc so callbacks always see the full, current set.
// Bursts of notifications are coalesced.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[subKey]map[uint64]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subKey]map[uint64]*subscriber)}
}

// Subscribe registers fn for (userID, date), delivers the initial snapshot synchronously
// and then redelivers on every Notify until the returned Unsubscribe is called or ctx ends.
func (h *Hub) Subscribe(ctx context.Context, userID, date string, fetch FetchFunc, fn LogsCallback) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)
	key := subKey{userID: userID, date: date}
	sub := &subscriber{
		signal: make(chan struct{}, 1),
		exited: make(chan struct{}),
		cancel: cancel,
	}

	// Register before the first read so a write racing the read still triggers a refresh.
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subs[key] == nil {
		h.subs[key] = make(map[uint64]*subscriber)
	}
	h.subs[key][id] = sub
	h.mu.Unlock()

	logs, err := fetch(subCtx)
	if err != nil {
		cancel()
		h.remove(key, id)
		return nil, err
	}
	fn(logs)

	go func() {
		defer close(sub.exited)
		defer h.remove(key, id)
		for {
			select {
			case <-subCtx.Done():
				return
			case <-sub.signal:
				logs, err := fetch(subCtx)
				if subCtx.Err() != nil {
					return
				}
				if err != nil {
					logger.Warn("Failed to refresh subscribed logs", "user", userID, "date", date, "error", err)
					continue
				}
				fn(logs)
			}
		}
	}()

	return func() {
		cancel()
		<-sub.exited
	}, nil
}

// Notify wakes every subscriber of (userID, date)
func (h *Hub) Notify(userID, date string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs[subKey{userID: userID, date: date}] {
		wake(sub)
	}
}

// NotifyUser wakes every subscriber of userID regardless of date
func (h *Hub) NotifyUser(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, subs := range h.subs {
		if key.userID != userID {
			continue
		}
		for _, sub := range subs {
			wake(sub)
		}
	}
}

// NotifyAll wakes every subscriber, e.g. after a change feed reconnects and may have
// dropped events
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subs {
		for _, sub := range subs {
			wake(sub)
		}
	}
}

// Len returns the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, subs := range h.subs {
		n += len(subs)
	}
	return n
}

// Close cancels every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	var cancels []context.CancelFunc
	for _, subs := range h.subs {
		for _, sub := range subs {
			cancels = append(cancels, sub.cancel)
		}
	}
	h.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (h *Hub) remove(key subKey, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[key], id)
	if len(h.subs[key]) == 0 {
		delete(h.subs, key)
	}
}

func wake(sub *subscriber) {
	select {
	case sub.signal <- struct{}{}:
	default:
	}
}
