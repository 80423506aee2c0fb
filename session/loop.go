package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/presbrey/packetirc/command"
	"github.com/presbrey/packetirc/config"
	"github.com/presbrey/packetirc/filter"
	"github.com/presbrey/packetirc/render"
)

// Commander sends outbound IRC commands produced by the core. The wire
// package implements it on top of the IRC codec; tests use fakes.
type Commander interface {
	Join(channel string)
	Part(channel, reason string)
	Message(target, text string)
	Action(target, text string)
	Nick(nick string)
	Topic(channel, topic string)
	TopicQuery(channel string)
	Names(channel string)
	List()
	Whois(nick string)
	Away(reason string)
	Quit(reason string)
	Close() error
}

// Dialer establishes one IRC connection for a callsign. Dial returns once
// the connection is up (events start flowing on the returned channel) or
// with an error. The loop owns the retry policy.
type Dialer interface {
	Dial(ctx context.Context, callsign string) (Commander, <-chan Event, error)
}

// quitGrace bounds how long teardown waits for the graceful QUIT to reach
// the wire before the connection is closed regardless.
const quitGrace = 3 * time.Second

const helpText = `PacketIRC commands:
  /quit [message] - Disconnect with optional message.
  /msg <nickname> <message> - Send a private message.
  /join <channel> - Join the specified channel.
  /part [message] - Leave the current channel.
  /nick <nickname> - Change your nickname.
  /list - List channels on the server.
  /names - Show users in the current channel.
  /topic [new topic] - Show or set the channel topic.
  /away [message] - Set or clear your away status.
  /me <action> - Perform an action.
  /whois <nickname> - Look up a user.
  /slap <nickname> - Percussive maintenance.
  /help - Display this help message.`

// Loop drives one operator connection against one IRC connection. It reads
// the callsign, connects, then services both input sources concurrently,
// funneling every state mutation through its single run goroutine.
type Loop struct {
	cfg    *config.Settings
	dialer Dialer
	filter *filter.Set
	log    *zap.Logger
	stats  Stats

	operator io.ReadWriter
	out      *bufio.Writer
	budget   render.Budget

	// sess is only touched on the Run goroutine; sessRef publishes it
	// for concurrent Session callers such as the status endpoint.
	sess       *Session
	sessRef    atomic.Pointer[Session]
	trans      *Translator
	conn       Commander
	quitReason string
}

// NewLoop assembles a session loop. stats may be nil.
func NewLoop(cfg *config.Settings, dialer Dialer, fs *filter.Set, operator io.ReadWriter, log *zap.Logger, stats Stats) *Loop {
	if stats == nil {
		stats = NopStats{}
	}
	return &Loop{
		cfg:      cfg,
		dialer:   dialer,
		filter:   fs,
		log:      log,
		stats:    stats,
		operator: operator,
		out:      bufio.NewWriter(operator),
		budget: render.Budget{
			MaxLineLen: cfg.Render.MaxLineLen,
			MaxLines:   cfg.Render.MaxLines,
		},
	}
}

// Session exposes the session aggregate once Run has read the callsign.
// Returns nil before that. Safe to call from any goroutine.
func (l *Loop) Session() *Session { return l.sessRef.Load() }

// Run executes the whole session: callsign handshake, IRC connect with
// bounded retry, concurrent service of both streams, orderly teardown. It
// returns when the operator stream closes, the IRC connection drops, or
// the operator quits.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := l.readOperator(ctx)

	callsign, ok := l.firstLine(ctx, lines)
	if !ok {
		return errors.New("no callsign received on operator stream")
	}

	l.sess = New(callsign)
	l.sessRef.Store(l.sess)
	l.trans = NewTranslator(l.sess, l.filter, l.budget, l.log, l.stats)
	l.log.Info("session started",
		zap.String("session_id", l.sess.ID()),
		zap.String("callsign", callsign))
	defer func() {
		l.log.Info("session ended",
			zap.String("session_id", l.sess.ID()),
			zap.String("callsign", callsign))
	}()

	l.write(l.cfg.Session.Welcome)

	conn, events, err := l.connect(ctx, callsign)
	if err != nil {
		l.write("** Unable to connect to server, please try again later.")
		return err
	}
	l.conn = conn
	if err := l.sess.BeginRegistration(); err != nil {
		return err
	}
	defer l.teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				// Operator side dropped; say goodbye to IRC and stop.
				return nil
			}
			l.sess.Touch()
			l.stats.OperatorLineIn()
			if quit := l.apply(command.Parse(line)); quit {
				return nil
			}

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			for _, line := range l.trans.Translate(ev) {
				l.write(line)
			}
			switch ev.Type {
			case EventWelcome:
				l.afterWelcome()
			case EventDisconnected:
				return nil
			}
		}
	}
}

// connect dials the IRC server, retrying up to the configured bound with
// the configured delay. Progress is reported to the operator, hiding the
// server address when the configuration says so.
func (l *Loop) connect(ctx context.Context, callsign string) (Commander, <-chan Event, error) {
	if l.cfg.IRC.HideServer {
		l.write("Connecting to server...")
	} else {
		l.write(fmt.Sprintf("** Connecting to %s", l.cfg.ServerAddress()))
	}

	var lastErr error
	attempts := l.cfg.IRC.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, events, err := l.dialer.Dial(ctx, callsign)
		if err == nil {
			return conn, events, nil
		}
		lastErr = err
		l.log.Error("irc connect failed",
			zap.String("callsign", callsign),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == attempts {
			break
		}
		l.write(fmt.Sprintf("** Retrying in %d seconds...", l.cfg.IRC.RetrySecs))
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(time.Duration(l.cfg.IRC.RetrySecs) * time.Second):
		}
	}
	return nil, nil, fmt.Errorf("connecting to irc server: %w", lastErr)
}

// afterWelcome joins the configured default channel, if any.
func (l *Loop) afterWelcome() {
	if ch := l.cfg.Session.Channel; ch != "" {
		l.conn.Join(ch)
	}
}

// apply executes one parsed operator command. It returns true when the
// session should end. Outbound user text is filtered before it reaches
// the wire; state is updated optimistically where the protocol allows.
func (l *Loop) apply(cmd command.Command) (quit bool) {
	if cmd.Kind == command.None {
		return false
	}

	l.stats.CommandDispatched(cmd.Kind.String())
	l.log.Info("command dispatched",
		zap.String("session_id", l.sess.ID()),
		zap.String("verb", cmd.Kind.String()))

	switch cmd.Kind {
	case command.Quit:
		if cmd.Text != "" {
			l.quitReason = l.cleanOutbound(cmd.Text)
		}
		return true

	case command.Msg:
		l.conn.Message(cmd.Target, l.cleanOutbound(cmd.Text))

	case command.Join:
		if !command.ValidChannel(cmd.Target) {
			l.write("** Invalid channel name.")
			return false
		}
		if current := l.sess.CurrentChannel(); current != "" {
			l.conn.Part(current, "Switching to "+cmd.Target)
		}
		l.conn.Join(cmd.Target)

	case command.Part:
		current := l.sess.CurrentChannel()
		if current == "" {
			l.write("** You are not currently in any channel.")
			return false
		}
		reason := cmd.Text
		if reason == "" {
			reason = l.cfg.Session.PartText
		}
		l.conn.Part(current, l.cleanOutbound(reason))

	case command.Nick:
		l.conn.Nick(cmd.Target)
		// Optimistic: the tracked nick follows immediately so that
		// subsequent self-join confirmation matches. A server-side
		// rejection arrives as an error event.
		l.sess.SetNick(cmd.Target)

	case command.List:
		l.conn.List()

	case command.Topic:
		current := l.sess.CurrentChannel()
		if current == "" {
			l.write("** You are not currently in any channel.")
			return false
		}
		if cmd.Text == "" {
			l.conn.TopicQuery(current)
		} else {
			l.conn.Topic(current, l.cleanOutbound(cmd.Text))
		}

	case command.Away:
		text := cmd.Text
		if text == "" {
			text = l.cfg.Session.AwayText
		}
		text = l.cleanOutbound(text)
		l.conn.Away(text)
		l.sess.SetAway(text)

	case command.Action:
		if !l.requireChannel() {
			return false
		}
		l.conn.Action(l.sess.CurrentChannel(), l.cleanOutbound(cmd.Text))

	case command.Whois:
		l.conn.Whois(cmd.Target)

	case command.Names:
		if !l.requireChannel() {
			return false
		}
		l.conn.Names(l.sess.CurrentChannel())

	case command.Slap:
		if !l.requireChannel() {
			return false
		}
		l.conn.Action(l.sess.CurrentChannel(),
			fmt.Sprintf("slaps %s around a bit with some coax.", cmd.Target))

	case command.Lid:
		l.applyLid(cmd)

	case command.Help:
		switch {
		case cmd.Unknown != "":
			l.write("** Unknown command. Type /help for a list of commands.")
		case cmd.Usage != "":
			l.write(cmd.Usage)
		default:
			l.write(helpText)
		}

	case command.Chat:
		current := l.sess.CurrentChannel()
		if current == "" {
			l.write("** You are not currently in any channel.")
			return false
		}
		l.conn.Message(current, l.cleanOutbound(cmd.Text))
	}
	return false
}

// applyLid handles the privileged LID-alarm command. Only allow-listed
// callsigns may use it; everyone else gets a denial, and both outcomes are
// logged for audit.
func (l *Loop) applyLid(cmd command.Command) {
	authorized := l.cfg.IsSysop(l.sess.Callsign())
	l.log.Info("special operator command",
		zap.String("session_id", l.sess.ID()),
		zap.String("callsign", l.sess.Callsign()),
		zap.Bool("authorized", authorized))
	if !authorized {
		l.write("** Permission denied.")
		return
	}
	if !l.requireChannel() {
		return
	}
	text := "may possibly be a LID."
	if cmd.Target != "" {
		text = fmt.Sprintf("presses the LID alarm while looking at %s.", cmd.Target)
	}
	l.conn.Action(l.sess.CurrentChannel(), text)
}

func (l *Loop) requireChannel() bool {
	if l.sess.CurrentChannel() == "" {
		l.write("** You are not currently in any channel.")
		return false
	}
	return true
}

// cleanOutbound filters operator-originated text before transmission.
func (l *Loop) cleanOutbound(text string) string {
	if l.filter.Contains(text) {
		l.stats.FilterHit()
		l.log.Info("filtered outbound content",
			zap.String("session_id", l.sess.ID()),
			zap.String("callsign", l.sess.Callsign()))
	}
	return l.filter.Clean(text)
}

// readOperator pumps operator lines into a channel, closing it on EOF or
// read error. The blocking read itself is only unblocked by the transport
// closing, which teardown guarantees.
func (l *Loop) readOperator(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.operator)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			l.log.Warn("operator stream read error", zap.Error(err))
		}
	}()
	return lines
}

// firstLine waits for the callsign handshake line.
func (l *Loop) firstLine(ctx context.Context, lines <-chan string) (string, bool) {
	for {
		select {
		case <-ctx.Done():
			return "", false
		case line, ok := <-lines:
			if !ok {
				return "", false
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			return line, true
		}
	}
}

// teardown sends the best-effort graceful QUIT within its grace period and
// releases the IRC connection.
func (l *Loop) teardown() {
	if l.conn == nil {
		return
	}
	reason := l.quitReason
	if reason == "" {
		reason = l.cfg.Session.QuitText
	}
	done := make(chan struct{})
	go func() {
		l.conn.Quit(reason)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(quitGrace):
		l.log.Warn("graceful quit timed out", zap.String("session_id", l.sess.ID()))
	}
	if err := l.conn.Close(); err != nil {
		l.log.Debug("closing irc connection", zap.Error(err))
	}
	l.out.Flush()
}

// write emits operator output cut to the render budget, width and line
// count alike, so local responses cost no more than translated events.
// It flushes immediately so the packet switch moves the IO.
func (l *Loop) write(text string) {
	for _, line := range render.Wrap(text, l.budget) {
		l.stats.OperatorLineOut()
		l.out.WriteString(line)
		l.out.WriteString("\r\n")
	}
	l.out.Flush()
}
