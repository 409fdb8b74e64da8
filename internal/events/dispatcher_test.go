package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishRunsHandlersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventInquiryCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.Target)
		return errors.New("boom")
	})
	d.Subscribe(EventInquiryCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.Target)
		return nil
	})
	d.Subscribe(EventInquiryDeleted, func(_ context.Context, _ Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventInquiryCreated, Target: "i1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:i1", "second:i1"}, calls)
}

func TestActorFrom_Nil(t *testing.T) {
	assert.Equal(t, Actor{}, ActorFrom(nil))
}
