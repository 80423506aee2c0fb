package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/presbrey/packetirc/filter"
	"github.com/presbrey/packetirc/render"
)

// Translator consumes inbound IRC events, applies their state mutation to
// the session, and decides what (if anything) the operator gets to see.
// All user-originated text passes through the content filter before it is
// rendered; everything is cut to the render budget.
type Translator struct {
	sess   *Session
	filter *filter.Set
	budget render.Budget
	log    *zap.Logger
	stats  Stats
}

// NewTranslator builds a Translator bound to one session.
func NewTranslator(sess *Session, fs *filter.Set, budget render.Budget, log *zap.Logger, stats Stats) *Translator {
	if stats == nil {
		stats = NopStats{}
	}
	return &Translator{sess: sess, filter: fs, budget: budget, log: log, stats: stats}
}

// Translate applies ev to the session state and returns the operator
// lines it produces, in order. An empty result means the event is
// invisible to the operator. Events inconsistent with tracked state are
// logged and dropped without mutating anything.
func (t *Translator) Translate(ev Event) []string {
	if err := t.sess.ApplyEvent(ev); err != nil {
		t.log.Warn("ignoring inconsistent event",
			zap.String("event", ev.Type.String()),
			zap.String("nick", ev.Nick),
			zap.String("target", ev.Target),
			zap.Error(err))
		return nil
	}

	switch ev.Type {
	case EventWelcome:
		if ev.Text != "" {
			return t.wrap(fmt.Sprintf("** Connected to %s", ev.Text))
		}
		return t.wrap("** Connected.")

	case EventJoined:
		if ev.Nick == t.sess.Nick() {
			return t.wrap(fmt.Sprintf("** Joined %s", ev.Target))
		}
		return t.wrap(fmt.Sprintf("* %s has joined %s", ev.Nick, ev.Target))

	case EventParted:
		if ev.Nick == t.sess.Nick() {
			return t.wrap(fmt.Sprintf("** Left %s", ev.Target))
		}
		if ev.Text != "" {
			return t.wrap(fmt.Sprintf("* %s has left %s (%s)", ev.Nick, ev.Target, t.clean(ev.Text)))
		}
		return t.wrap(fmt.Sprintf("* %s has left %s", ev.Nick, ev.Target))

	case EventQuit:
		if ev.Text != "" {
			return t.wrap(fmt.Sprintf("* %s has quit (%s)", ev.Nick, t.clean(ev.Text)))
		}
		return t.wrap(fmt.Sprintf("* %s has quit", ev.Nick))

	case EventKicked:
		if ev.Nick == t.sess.Nick() {
			return t.wrap(fmt.Sprintf("** You were kicked from %s (%s)", ev.Target, t.clean(ev.Text)))
		}
		return t.wrap(fmt.Sprintf("* %s was kicked from %s", ev.Nick, ev.Target))

	case EventPrivMsg:
		if ev.Target == t.sess.Nick() {
			return t.wrap(fmt.Sprintf("** %s: %s", ev.Nick, t.clean(ev.Text)))
		}
		return t.wrap(fmt.Sprintf("<%s> %s", ev.Nick, t.clean(ev.Text)))

	case EventAction:
		return t.wrap(fmt.Sprintf("* %s %s", ev.Nick, t.clean(ev.Text)))

	case EventNotice:
		source := ev.Nick
		if source == "" {
			source = "SERVER"
		}
		return t.wrap(fmt.Sprintf("-%s- %s", source, t.clean(ev.Text)))

	case EventNickChanged:
		if ev.NewNick == t.sess.Nick() {
			return t.wrap(fmt.Sprintf("** You are now known as %s", ev.NewNick))
		}
		return t.wrap(fmt.Sprintf("* %s is now known as %s", ev.Nick, ev.NewNick))

	case EventTopicChanged:
		return t.wrap(fmt.Sprintf("* %s changed the topic to: %s", ev.Nick, t.clean(ev.Text)))

	case EventCurrentTopic:
		return t.wrap(fmt.Sprintf("** %s: %s", ev.Target, t.clean(ev.Text)))

	case EventNamesReply:
		return render.JoinNames(fmt.Sprintf("Users in %s: ", ev.Target), ev.Names, t.budget)

	case EventWhoisReply:
		return t.whoisLines(ev.Whois)

	case EventListReply:
		return []string{render.Line(fmt.Sprintf("%s [%s] %s", ev.Target, ev.Count, t.clean(ev.Text)), t.budget)}

	case EventMOTD:
		return render.Wrap(ev.Text, t.budget)

	case EventError:
		t.stats.IRCError()
		t.log.Warn("irc error event",
			zap.String("code", ev.Code),
			zap.String("text", ev.Text))
		return t.wrap(fmt.Sprintf("** Error %s: %s", ev.Code, t.clean(ev.Text)))

	case EventDisconnected:
		return t.wrap("** Disconnected.")
	}
	return nil
}

// whoisLines renders the compact WHOIS block. The server field is only
// shown when the ircd actually returned one.
func (t *Translator) whoisLines(w WhoisInfo) []string {
	lines := []string{
		render.Line(fmt.Sprintf("** WHOIS for %s", w.Nick), t.budget),
		render.Line(fmt.Sprintf("   %s@%s", w.Username, w.Host), t.budget),
	}
	if hasServerField(w.Server) {
		lines = append(lines, render.Line("   Server: "+w.Server, t.budget))
	}
	lines = append(lines, render.Line("   Name: "+w.RealName, t.budget))
	if len(lines) > t.budget.MaxLines {
		lines = lines[:t.budget.MaxLines]
	}
	return lines
}

// hasServerField reports whether a WHOIS server value is meaningful; some
// ircds fill it with spaces and asterisks.
func hasServerField(server string) bool {
	for _, r := range server {
		if r != ' ' && r != '*' {
			return true
		}
	}
	return false
}

func (t *Translator) clean(text string) string {
	if t.filter.Contains(text) {
		t.stats.FilterHit()
		t.log.Info("filtered inbound content", zap.String("session_id", t.sess.ID()))
	}
	return t.filter.Clean(text)
}

func (t *Translator) wrap(text string) []string {
	return render.Wrap(text, t.budget)
}
