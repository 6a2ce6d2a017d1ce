package sse

import (
	"testing"

	ginsse "github.com/gin-contrib/sse"
	"github.com/stretchr/testify/require"
)

func TestHub_PushDeliversToRegisteredChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Register(42)

	hub.Push(42, ginsse.Event{Event: "notification", Data: "hello"})

	event := <-ch
	require.Equal(t, "notification", event.Event)
	require.Equal(t, "hello", event.Data)
}

func TestHub_PushWithoutRegistrationIsNoop(t *testing.T) {
	hub := NewHub()

	// Must not panic or block
	hub.Push(7, ginsse.Event{Event: "notification"})
	require.False(t, hub.Connected(7))
}

func TestHub_ReconnectClosesSupersededChannel(t *testing.T) {
	hub := NewHub()
	first := hub.Register(1)
	second := hub.Register(1)

	_, ok := <-first
	require.False(t, ok, "superseded channel should be closed")

	hub.Push(1, ginsse.Event{Event: "notification", Data: "to-second"})
	event := <-second
	require.Equal(t, "to-second", event.Data)
}

func TestHub_UnregisterIgnoresStaleChannel(t *testing.T) {
	hub := NewHub()
	first := hub.Register(1)
	second := hub.Register(1)

	// The replaced stream handler tears down with its own channel; the new
	// registration must survive.
	hub.Unregister(1, first)
	require.True(t, hub.Connected(1))

	hub.Unregister(1, second)
	require.False(t, hub.Connected(1))
}

func TestHub_FullChannelIsDropped(t *testing.T) {
	hub := NewHub()
	hub.Register(5)

	// Nothing drains the channel; overflowing it must unregister rather
	// than block the producer.
	for i := 0; i < clientBuffer+1; i++ {
		hub.Push(5, ginsse.Event{Event: "notification", Data: i})
	}

	require.False(t, hub.Connected(5))
}
