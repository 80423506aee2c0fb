package wire

import (
	"fmt"
	"testing"

	"github.com/lrstanley/girc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/presbrey/packetirc/session"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c := &Client{
		events: make(chan session.Event, 64),
		log:    zaptest.NewLogger(t),
		done:   make(chan struct{}),
	}
	c.irc = girc.New(girc.Config{
		Server: "irc.test.local",
		Port:   6667,
		Nick:   "N0CALL",
		User:   "n0call",
		Name:   "n0call",
	})
	c.register(false)
	return c
}

// The session applies events in the order they arrive on the channel, so
// the handlers must deliver them in wire order even under bursty traffic.
func TestInboundEventsPreserveWireOrder(t *testing.T) {
	c := testClient(t)

	const n = 20
	for i := 0; i < n; i++ {
		ev := girc.ParseEvent(fmt.Sprintf(":eve!eve@radio.example PRIVMSG #packet :msg-%02d", i))
		require.NotNil(t, ev)
		c.irc.RunHandlers(ev)
	}

	for i := 0; i < n; i++ {
		select {
		case ev := <-c.events:
			assert.Equal(t, session.EventPrivMsg, ev.Type)
			assert.Equal(t, fmt.Sprintf("msg-%02d", i), ev.Text)
			assert.Equal(t, "eve", ev.Nick)
		default:
			t.Fatalf("event %d was not delivered before the read loop moved on", i)
		}
	}
}

func TestJoinThenPartKeepOrder(t *testing.T) {
	c := testClient(t)

	c.irc.RunHandlers(girc.ParseEvent(":N0CALL!n0call@radio.example JOIN #packet"))
	c.irc.RunHandlers(girc.ParseEvent(":N0CALL!n0call@radio.example PART #packet :Switching to #other"))
	c.irc.RunHandlers(girc.ParseEvent(":N0CALL!n0call@radio.example JOIN #other"))

	want := []session.Event{
		{Type: session.EventJoined, Nick: "N0CALL", Target: "#packet"},
		{Type: session.EventParted, Nick: "N0CALL", Target: "#packet", Text: "Switching to #other"},
		{Type: session.EventJoined, Nick: "N0CALL", Target: "#other"},
	}
	for i, w := range want {
		select {
		case ev := <-c.events:
			assert.Equal(t, w, ev, "event %d", i)
		default:
			t.Fatalf("event %d missing", i)
		}
	}
}

func TestActionDetection(t *testing.T) {
	c := testClient(t)

	c.irc.RunHandlers(girc.ParseEvent(":eve!eve@radio.example PRIVMSG #packet :\x01ACTION waves\x01"))
	c.irc.RunHandlers(girc.ParseEvent(":eve!eve@radio.example PRIVMSG #packet :\x01KEYX request\x01"))

	select {
	case ev := <-c.events:
		assert.Equal(t, session.EventAction, ev.Type)
		assert.Equal(t, "waves", ev.Text)
	default:
		t.Fatal("action event missing")
	}
	select {
	case ev := <-c.events:
		t.Fatalf("CTCP query leaked to the session: %+v", ev)
	default:
	}
}
