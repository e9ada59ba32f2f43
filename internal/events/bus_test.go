package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_DeliversToMatchingSubscribers(t *testing.T) {
	bus := NewBus(nil)
	ctx := context.Background()

	var all, groups []Signal
	bus.Subscribe(func(e Event) { all = append(all, e.Signal) })
	unsub := bus.Subscribe(func(e Event) { groups = append(groups, e.Signal) }, GroupsUpdated)

	bus.Publish(ctx, Event{Signal: UsersUpdated})
	bus.Publish(ctx, Event{Signal: GroupsUpdated})

	assert.Equal(t, []Signal{UsersUpdated, GroupsUpdated}, all)
	assert.Equal(t, []Signal{GroupsUpdated}, groups)

	unsub()
	unsub()
	bus.Publish(ctx, Event{Signal: GroupsUpdated})
	assert.Len(t, groups, 1)
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestBus_StampsTimeAndSurvivesPanics(t *testing.T) {
	bus := NewBus(nil)

	var got Event
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(e Event) { got = e })

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), Event{Signal: NotificationsUpdated})
	})
	assert.Equal(t, NotificationsUpdated, got.Signal)
	assert.False(t, got.At.IsZero())
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "hazard.signals.hazardsUpdated", Subject(Event{Signal: HazardsUpdated}))
}

func TestNewNATSForwarder_RequiresURL(t *testing.T) {
	_, err := NewNATSForwarder("", nil)
	assert.Error(t, err)
}
