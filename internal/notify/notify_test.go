package notify

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/devhub-agent/internal/clock"
	"github.com/ngenohkevin/devhub-agent/internal/ident"
	"github.com/ngenohkevin/devhub-agent/internal/tasks"
)

func newTestCenter() (*Center, *clock.Manual) {
	clk := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	var seq atomic.Int64
	ids := ident.Func(func() string {
		return fmt.Sprintf("ntf_%d", seq.Add(1))
	})
	return NewCenter(clk, ids), clk
}

func TestCenter_PushAndList(t *testing.T) {
	c, clk := newTestCenter()

	first := c.Push(TypeInfo, "One", "first")
	clk.Advance(time.Second)
	second := c.Push(TypeWarning, "Two", "second")

	assert.Equal(t, "ntf_1", first.ID)
	assert.False(t, first.Read)
	assert.Equal(t, clk.Now(), second.Timestamp)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Two", list[0].Title)
	assert.Equal(t, "One", list[1].Title)
	assert.Equal(t, 2, c.Unread())
}

func TestCenter_MarkRead(t *testing.T) {
	c, _ := newTestCenter()
	n := c.Push(TypeInfo, "Hello", "world")

	require.NoError(t, c.MarkRead(n.ID))
	assert.Equal(t, 0, c.Unread())
	assert.True(t, c.List()[0].Read)

	err := c.MarkRead("ntf_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCenter_Clear(t *testing.T) {
	c, _ := newTestCenter()
	c.Push(TypeInfo, "a", "")
	c.Push(TypeInfo, "b", "")

	c.Clear()
	assert.Empty(t, c.List())
	assert.Equal(t, 0, c.Unread())
}

func TestCenter_Capacity(t *testing.T) {
	c, _ := newTestCenter()
	c.capacity = 3

	for i := 0; i < 5; i++ {
		c.Push(TypeInfo, fmt.Sprintf("n%d", i), "")
	}

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "n4", list[0].Title)
	assert.Equal(t, "n2", list[2].Title)
}

func TestCenter_PublishTaskEvents(t *testing.T) {
	c, _ := newTestCenter()

	c.Publish(tasks.Event{Type: tasks.EventCreated, Task: tasks.Task{Title: "Write docs"}})
	c.Publish(tasks.Event{Type: tasks.EventDeleted, Task: tasks.Task{Title: "Write docs"}})

	list := c.List()
	require.Len(t, list, 2)

	assert.Equal(t, TypeInfo, list[0].Type)
	assert.Equal(t, "Task Deleted", list[0].Title)
	assert.Equal(t, `Task "Write docs" has been deleted`, list[0].Message)

	assert.Equal(t, TypeSuccess, list[1].Type)
	assert.Equal(t, "Task Created", list[1].Title)
	assert.Equal(t, `Task "Write docs" has been created`, list[1].Message)
}

func TestCenter_Subscribe(t *testing.T) {
	c, _ := newTestCenter()

	events, unsubscribe := c.Subscribe(4)
	assert.Equal(t, 1, c.Subscribers())
	n := c.Push(TypeSuccess, "Saved", "")
	c.Broadcast(Event{Kind: KindCommand, Data: "cmd_1"})

	select {
	case e := <-events:
		assert.Equal(t, KindNotification, e.Kind)
		assert.Equal(t, n, e.Data)
	case <-time.After(time.Second):
		t.Fatal("no notification event")
	}

	e := <-events
	assert.Equal(t, KindCommand, e.Kind)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, c.Subscribers())

	_, ok := <-events
	assert.False(t, ok)

	// publishing after unsubscribe must not panic
	c.Push(TypeInfo, "later", "")
}

func TestCenter_SlowSubscriberDoesNotBlock(t *testing.T) {
	c, _ := newTestCenter()

	events, unsubscribe := c.Subscribe(1)
	defer unsubscribe()

	c.Push(TypeInfo, "a", "")
	c.Push(TypeInfo, "b", "")

	e := <-events
	assert.Equal(t, "a", e.Data.(Notification).Title)
	assert.Len(t, c.List(), 2)
}
