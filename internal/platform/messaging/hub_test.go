package messaging_test

import (
	"context"
	"testing"
	"time"

	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	"livepolls/internal/platform/messaging"
)

func delta(pollID, optionID string, votes int64) entities.ScoreDelta {
	return entities.ScoreDelta{PollID: pollID, OptionID: optionID, Votes: votes}
}

func TestHubDeliversEventsInPublishOrder(t *testing.T) {
	hub := messaging.NewHub(8, nil)
	sub := hub.Subscribe("p1")
	defer sub.Close()
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		hub.Publish(ctx, "p1", delta("p1", "o1", i))
	}

	for want := int64(1); want <= 5; want++ {
		select {
		case got := <-sub.Events():
			if got.Votes != want {
				t.Fatalf("expected votes %d in order, got %d", want, got.Votes)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", want)
		}
	}
}

func TestHubIsolatesPolls(t *testing.T) {
	hub := messaging.NewHub(8, nil)
	sub := hub.Subscribe("p1")
	defer sub.Close()

	hub.Publish(context.Background(), "p2", delta("p2", "o1", 1))

	select {
	case event := <-sub.Events():
		t.Fatalf("watcher of p1 received p2 event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubLateSubscriberSeesNoBacklog(t *testing.T) {
	hub := messaging.NewHub(8, nil)
	hub.Publish(context.Background(), "p1", delta("p1", "o1", 1))

	sub := hub.Subscribe("p1")
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Fatalf("late subscriber received backlog event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsForSlowWatcherWithoutBlocking(t *testing.T) {
	hub := messaging.NewHub(1, nil)
	sub := hub.Subscribe("p1")
	defer sub.Close()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		// Buffer of one: the second publish must drop, not block.
		hub.Publish(ctx, "p1", delta("p1", "o1", 1))
		hub.Publish(ctx, "p1", delta("p1", "o1", 2))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow watcher")
	}

	got := <-sub.Events()
	if got.Votes != 1 {
		t.Fatalf("expected the buffered first event, got %+v", got)
	}
	select {
	case event := <-sub.Events():
		t.Fatalf("dropped event was delivered: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCloseDetachesAndIsIdempotent(t *testing.T) {
	hub := messaging.NewHub(8, nil)
	sub := hub.Subscribe("p1")
	if count := hub.SubscriberCount("p1"); count != 1 {
		t.Fatalf("expected one watcher, got %d", count)
	}

	sub.Close()
	sub.Close()
	if count := hub.SubscriberCount("p1"); count != 0 {
		t.Fatalf("expected no watchers after close, got %d", count)
	}

	// Publishing after close must not panic on the closed channel.
	hub.Publish(context.Background(), "p1", delta("p1", "o1", 1))

	if _, open := <-sub.Events(); open {
		t.Fatalf("expected events channel closed")
	}
}
