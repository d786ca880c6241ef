package messaging

import (
	"context"
	"log/slog"
	"sync"

	"livepolls/contexts/live-polls/vote-engine/domain/entities"
)

// Hub is the in-process broadcast fan-out for live score events, keyed by
// poll. Publishing never blocks the voter: a watcher whose buffer is full
// loses the event and catches up from the next absolute score. Events for
// one poll are delivered to each watcher in publish order.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]*pollTopic
	buffer int
	logger *slog.Logger
}

type pollTopic struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Subscription is one watcher's feed of a single poll. Close is idempotent
// and detaches the watcher before closing the channel.
type Subscription struct {
	pollID string
	events chan entities.ScoreDelta
	once   sync.Once
	detach func()
}

func (s *Subscription) Events() <-chan entities.ScoreDelta {
	return s.events
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.detach()
		close(s.events)
	})
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		topics: make(map[string]*pollTopic),
		buffer: buffer,
		logger: logger,
	}
}

// Publish fans the event out to the poll's current watchers. Watchers that
// subscribed after the event see nothing; there is no backlog replay.
func (h *Hub) Publish(_ context.Context, pollID string, delta entities.ScoreDelta) {
	h.mu.RLock()
	topic := h.topics[pollID]
	h.mu.RUnlock()
	if topic == nil {
		return
	}

	// Sends run under the topic lock so every watcher observes one poll's
	// events in publish order.
	topic.mu.Lock()
	defer topic.mu.Unlock()
	for _, sub := range topic.subs {
		select {
		case sub.events <- delta:
		default:
			if h.logger != nil {
				h.logger.Warn("dropping score event for slow watcher",
					"event", "hub_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"poll_id", pollID,
					"option_id", delta.OptionID,
				)
			}
		}
	}
}

// Subscribe attaches a watcher to a poll's live feed.
func (h *Hub) Subscribe(pollID string) *Subscription {
	h.mu.Lock()
	topic, ok := h.topics[pollID]
	if !ok {
		topic = &pollTopic{}
		h.topics[pollID] = topic
	}
	h.mu.Unlock()

	sub := &Subscription{
		pollID: pollID,
		events: make(chan entities.ScoreDelta, h.buffer),
	}
	sub.detach = func() { topic.remove(sub) }

	topic.mu.Lock()
	topic.subs = append(topic.subs, sub)
	topic.mu.Unlock()
	return sub
}

// SubscriberCount reports the current watchers of a poll.
func (h *Hub) SubscriberCount(pollID string) int {
	h.mu.RLock()
	topic := h.topics[pollID]
	h.mu.RUnlock()
	if topic == nil {
		return 0
	}
	topic.mu.Lock()
	defer topic.mu.Unlock()
	return len(topic.subs)
}

func (t *pollTopic) remove(target *Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	filtered := make([]*Subscription, 0, len(t.subs))
	for _, sub := range t.subs {
		if sub != target {
			filtered = append(filtered, sub)
		}
	}
	t.subs = filtered
}
