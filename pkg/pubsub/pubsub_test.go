package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_GetReturnsCurrent(t *testing.T) {
	v := NewValue(42)
	assert.Equal(t, 42, v.Get())

	v.Set(7)
	assert.Equal(t, 7, v.Get())
}

func TestValue_SubscribeReplaysCurrentValue(t *testing.T) {
	v := NewValue("initial")
	ch, cancel := v.Subscribe()
	defer cancel()

	assert.Equal(t, "initial", <-ch)

	v.Set("updated")
	assert.Equal(t, "updated", <-ch)
}

func TestValue_SlowSubscriberIsConflatedToNewest(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	// Nothing drains the channel while three updates land.
	v.Set(1)
	v.Set(2)
	v.Set(3)

	// The replayed initial value was overwritten; only the newest remains.
	assert.Equal(t, 3, <-ch)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected buffered value %v", extra)
	default:
	}
}

func TestValue_CancelStopsDelivery(t *testing.T) {
	v := NewValue(1)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()

	v.Set(2)
	_, open := <-ch
	assert.False(t, open, "cancelled subscription channel must be closed")
}

func TestFeed_NoReplayForLateSubscribers(t *testing.T) {
	f := NewFeed[int](4)
	f.Publish(1) // nobody listening

	ch, cancel := f.Subscribe()
	defer cancel()

	select {
	case got := <-ch:
		t.Fatalf("late subscriber must not see old events, got %v", got)
	default:
	}

	f.Publish(2)
	assert.Equal(t, 2, <-ch)
}

func TestFeed_BroadcastsToAllSubscribers(t *testing.T) {
	f := NewFeed[string](4)
	a, cancelA := f.Subscribe()
	defer cancelA()
	b, cancelB := f.Subscribe()
	defer cancelB()

	require.Equal(t, 2, f.SubscriberCount())

	f.Publish("event")
	assert.Equal(t, "event", <-a)
	assert.Equal(t, "event", <-b)
}

func TestFeed_FullSubscriberDropsNotBlocks(t *testing.T) {
	f := NewFeed[int](1)
	ch, cancel := f.Subscribe()
	defer cancel()

	f.Publish(1)
	f.Publish(2) // buffer full, dropped

	assert.Equal(t, 1, <-ch)
	select {
	case got := <-ch:
		t.Fatalf("dropped event delivered: %v", got)
	default:
	}
}

func TestFeed_CancelRemovesSubscriber(t *testing.T) {
	f := NewFeed[int](1)
	_, cancel := f.Subscribe()
	cancel()
	assert.Equal(t, 0, f.SubscriberCount())

	// Publishing to an empty feed is fine.
	f.Publish(1)
}
