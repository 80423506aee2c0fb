// Package wire adapts the girc IRC codec to the session core. It turns
// girc callbacks into session.Event values on a channel and implements
// session.Commander for the outbound direction. Keepalive PING/PONG is
// handled entirely by girc and never surfaces as an event.
package wire

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/girc"
	"go.uber.org/zap"

	"github.com/presbrey/packetirc/config"
	"github.com/presbrey/packetirc/session"
)

// connectTimeout bounds how long Dial waits for the server Welcome before
// giving up on an attempt.
const connectTimeout = 30 * time.Second

// basecallPattern strips an SSID suffix (N0CALL-7 → N0CALL); some ircds
// reject idents containing '-'.
var basecallPattern = regexp.MustCompile(`^[A-Za-z0-9]+`)

// Dialer builds one girc connection per Dial call.
type Dialer struct {
	cfg *config.Settings
	log *zap.Logger
}

// NewDialer returns a Dialer for the configured IRC server.
func NewDialer(cfg *config.Settings, log *zap.Logger) *Dialer {
	return &Dialer{cfg: cfg, log: log}
}

// Client wraps one live girc connection.
type Client struct {
	irc    *girc.Client
	events chan session.Event
	log    *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// Dial connects to the IRC server as the given callsign. It returns once
// registration succeeded (the Welcome event is already queued on the
// returned channel) or with an error. girc's own handler goroutines stay
// alive until Close.
func (d *Dialer) Dial(ctx context.Context, callsign string) (session.Commander, <-chan session.Event, error) {
	basecall := basecallPattern.FindString(callsign)
	if basecall == "" {
		basecall = "packet"
	}

	c := &Client{
		events: make(chan session.Event, 64),
		log:    d.log,
		done:   make(chan struct{}),
	}

	c.irc = girc.New(girc.Config{
		Server:     d.cfg.IRC.Server,
		Port:       d.cfg.IRC.Port,
		ServerPass: d.cfg.IRC.Password,
		SSL:        d.cfg.IRC.TLS,
		Nick:       callsign,
		User:       basecall,
		Name:       basecall,
		PingDelay:  30 * time.Second,
		HandleNickCollide: func(nick string) string {
			return fmt.Sprintf("%s_%d", nick, rand.Intn(1000))
		},
	})
	c.register(d.cfg.IRC.HideServer)

	connected := make(chan struct{})
	c.irc.Handlers.Add(girc.CONNECTED, func(_ *girc.Client, _ girc.Event) {
		select {
		case connected <- struct{}{}:
		default:
		}
	})

	runErr := make(chan error, 1)
	go func() {
		err := c.irc.Connect()
		if err != nil {
			d.log.Warn("irc connection ended", zap.Error(err))
		}
		c.emit(session.Event{Type: session.EventDisconnected})
		c.stop()
		runErr <- err
	}()

	select {
	case <-connected:
		return c, c.events, nil
	case err := <-runErr:
		if err == nil {
			err = fmt.Errorf("connection closed before registration")
		}
		return nil, nil, err
	case <-time.After(connectTimeout):
		c.irc.Close()
		return nil, nil, fmt.Errorf("timed out connecting to %s", d.cfg.ServerAddress())
	case <-ctx.Done():
		c.irc.Close()
		return nil, nil, ctx.Err()
	}
}

// register installs the inbound event handlers. All of them are
// synchronous: girc runs background handlers in detached goroutines,
// which would let bursty traffic reach the session out of wire order.
// The session applies events in the order they land on c.events, so the
// handlers must preserve it. hideServer controls whether the Welcome
// event carries the server name.
func (c *Client) register(hideServer bool) {
	h := c.irc.Handlers

	h.Add(girc.RPL_WELCOME, func(cl *girc.Client, e girc.Event) {
		ev := session.Event{Type: session.EventWelcome, Nick: cl.GetNick()}
		if !hideServer {
			ev.Text = e.Source.String()
		}
		c.emit(ev)
	})

	h.Add(girc.JOIN, func(_ *girc.Client, e girc.Event) {
		c.emit(session.Event{
			Type:   session.EventJoined,
			Nick:   sourceNick(e),
			Target: e.Params[0],
		})
	})

	h.Add(girc.PART, func(_ *girc.Client, e girc.Event) {
		c.emit(session.Event{
			Type:   session.EventParted,
			Nick:   sourceNick(e),
			Target: e.Params[0],
			Text:   trailing(e, 1),
		})
	})

	h.Add(girc.QUIT, func(_ *girc.Client, e girc.Event) {
		c.emit(session.Event{
			Type: session.EventQuit,
			Nick: sourceNick(e),
			Text: e.Last(),
		})
	})

	h.Add(girc.KICK, func(_ *girc.Client, e girc.Event) {
		if len(e.Params) < 2 {
			return
		}
		c.emit(session.Event{
			Type:   session.EventKicked,
			Nick:   e.Params[1],
			Target: e.Params[0],
			Text:   trailing(e, 2),
		})
	})

	h.Add(girc.PRIVMSG, func(_ *girc.Client, e girc.Event) {
		if len(e.Params) < 2 {
			return
		}
		text := e.Last()
		typ := session.EventPrivMsg
		// CTCP ACTION arrives as a \x01-framed PRIVMSG payload.
		if strings.HasPrefix(text, "\x01ACTION") {
			typ = session.EventAction
			text = strings.Trim(strings.TrimPrefix(text, "\x01ACTION"), "\x01 ")
		} else if strings.HasPrefix(text, "\x01") {
			return // other CTCP queries are girc's business
		}
		c.emit(session.Event{
			Type:   typ,
			Nick:   sourceNick(e),
			Target: e.Params[0],
			Text:   text,
		})
	})

	h.Add(girc.NOTICE, func(_ *girc.Client, e girc.Event) {
		text := e.Last()
		if strings.HasPrefix(text, "\x01") {
			return
		}
		c.emit(session.Event{
			Type: session.EventNotice,
			Nick: sourceNick(e),
			Text: text,
		})
	})

	h.Add(girc.NICK, func(_ *girc.Client, e girc.Event) {
		c.emit(session.Event{
			Type:    session.EventNickChanged,
			Nick:    sourceNick(e),
			NewNick: e.Last(),
		})
	})

	h.Add(girc.TOPIC, func(_ *girc.Client, e girc.Event) {
		c.emit(session.Event{
			Type:   session.EventTopicChanged,
			Nick:   sourceNick(e),
			Target: e.Params[0],
			Text:   e.Last(),
		})
	})

	h.Add(girc.RPL_TOPIC, func(_ *girc.Client, e girc.Event) {
		if len(e.Params) < 3 {
			return
		}
		c.emit(session.Event{
			Type:   session.EventCurrentTopic,
			Target: e.Params[1],
			Text:   e.Last(),
		})
	})

	h.Add(girc.RPL_NAMREPLY, func(_ *girc.Client, e girc.Event) {
		if len(e.Params) < 4 {
			return
		}
		c.emit(session.Event{
			Type:   session.EventNamesReply,
			Target: e.Params[2],
			Names:  strings.Fields(e.Last()),
		})
	})

	h.Add(girc.RPL_WHOISUSER, func(_ *girc.Client, e girc.Event) {
		if len(e.Params) < 6 {
			return
		}
		c.emit(session.Event{
			Type: session.EventWhoisReply,
			Whois: session.WhoisInfo{
				Nick:     e.Params[1],
				Username: e.Params[2],
				Host:     e.Params[3],
				Server:   e.Params[4],
				RealName: e.Last(),
			},
		})
	})

	h.Add(girc.RPL_LIST, func(_ *girc.Client, e girc.Event) {
		if len(e.Params) < 3 {
			return
		}
		c.emit(session.Event{
			Type:   session.EventListReply,
			Target: e.Params[1],
			Count:  e.Params[2],
			Text:   e.Last(),
		})
	})

	h.Add(girc.RPL_MOTD, func(_ *girc.Client, e girc.Event) {
		c.emit(session.Event{Type: session.EventMOTD, Text: e.Last()})
	})

	h.Add(girc.RPL_MOTDSTART, func(_ *girc.Client, e girc.Event) {
		c.emit(session.Event{Type: session.EventMOTD, Text: "** Message of the Day"})
	})

	h.Add(girc.ERROR, func(_ *girc.Client, e girc.Event) {
		c.emit(session.Event{
			Type: session.EventError,
			Code: girc.ERROR,
			Text: e.Last(),
		})
	})

	// Numeric error replies (401 no such nick, 473 invite only, ...) all
	// surface to the operator with their code.
	h.Add(girc.ALL_EVENTS, func(_ *girc.Client, e girc.Event) {
		if len(e.Command) != 3 || (e.Command[0] != '4' && e.Command[0] != '5') {
			return
		}
		if e.Command == girc.ERR_NICKNAMEINUSE {
			return // resolved by HandleNickCollide
		}
		c.emit(session.Event{
			Type: session.EventError,
			Code: e.Command,
			Text: e.Last(),
		})
	})
}

// emit queues an event for the session loop, giving up when the adapter
// is stopped so girc's read loop can never block on a dead session.
func (c *Client) emit(ev session.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func sourceNick(e girc.Event) string {
	if e.Source == nil {
		return ""
	}
	return e.Source.Name
}

// trailing returns the e.Params element at index i, or "".
func trailing(e girc.Event, i int) string {
	if len(e.Params) > i {
		return e.Params[i]
	}
	return ""
}

// Commander implementation.

func (c *Client) Join(channel string) { c.irc.Cmd.Join(channel) }

func (c *Client) Part(channel, reason string) {
	c.irc.Cmd.SendRawf("PART %s :%s", channel, reason)
}

func (c *Client) Message(target, text string) { c.irc.Cmd.Message(target, text) }

func (c *Client) Action(target, text string) { c.irc.Cmd.Action(target, text) }

func (c *Client) Nick(nick string) { c.irc.Cmd.Nick(nick) }

func (c *Client) Topic(channel, topic string) { c.irc.Cmd.Topic(channel, topic) }

func (c *Client) TopicQuery(channel string) { c.irc.Cmd.SendRawf("TOPIC %s", channel) }

func (c *Client) Names(channel string) { c.irc.Cmd.SendRawf("NAMES %s", channel) }

func (c *Client) List() { c.irc.Cmd.List() }

func (c *Client) Whois(nick string) { c.irc.Cmd.Whois(nick) }

func (c *Client) Away(reason string) { c.irc.Cmd.SendRawf("AWAY :%s", reason) }

// Quit sends the graceful QUIT. girc tears the connection down after the
// server acknowledges or the socket drops.
func (c *Client) Quit(reason string) {
	c.irc.Quit(reason)
}

// Close releases the connection and unblocks any pending emit.
func (c *Client) Close() error {
	c.stop()
	c.irc.Close()
	return nil
}
