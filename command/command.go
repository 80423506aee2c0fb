// Package command parses single lines typed by the remote operator into
// typed commands. The grammar is deliberately tiny: a leading '/' selects a
// verb, anything else is chat for the current channel. Every line that is
// not empty produces exactly one Command so the session loop can always
// answer the operator with exactly one response.
package command

import (
	"regexp"
	"strings"
)

// Kind identifies a parsed command variant.
type Kind int

const (
	// None is produced for empty input; the session loop ignores it.
	None Kind = iota
	Quit
	Msg
	Join
	Part
	Nick
	List
	Topic
	Away
	Action
	Whois
	Names
	Slap
	Lid
	Help
	Chat
)

var kindNames = map[Kind]string{
	None: "none", Quit: "quit", Msg: "msg", Join: "join", Part: "part",
	Nick: "nick", List: "list", Topic: "topic", Away: "away", Action: "me",
	Whois: "whois", Names: "names", Slap: "slap", Lid: "lid", Help: "help",
	Chat: "chat",
}

// String returns the verb name for logging.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Command is one parsed operator input line. It is immutable once parsed;
// which fields are meaningful depends on Kind.
type Command struct {
	Kind   Kind
	Target string // Msg, Whois, Slap, Lid target nick; Join channel; Nick name
	Text   string // Msg/Chat/Action payload, Topic/Away/Part/Quit optional text

	// Unknown is set on Help commands synthesized for an unrecognized verb.
	Unknown string
	// Usage is set on Help commands synthesized for an arity error.
	Usage string
}

// channelPattern is the accepted channel-name shape: '#' followed by at
// least one character that is neither whitespace nor a comma.
var channelPattern = regexp.MustCompile(`^#[^\s,]+$`)

// ValidChannel reports whether name is an acceptable channel name.
func ValidChannel(name string) bool {
	return channelPattern.MatchString(name)
}

// usage strings echoed back on arity errors, matching the operator help.
const (
	usageMsg   = "Usage: /msg <nickname> <message>"
	usageJoin  = "Usage: /join <channel>"
	usageNick  = "Usage: /nick <nickname>"
	usageMe    = "Usage: /me <action>"
	usageWhois = "Usage: /whois <nickname>"
	usageSlap  = "Usage: /slap <nickname>"
)

// Parse turns one raw operator line into a Command. Leading and trailing
// whitespace is trimmed first. An empty line yields Kind None. Unknown
// verbs and arity errors yield Help commands carrying feedback for the
// operator; Parse never fails.
func Parse(raw string) Command {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Command{Kind: None}
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: Chat, Text: line}
	}

	verb, args := splitVerb(line)
	switch verb {
	case "/quit":
		return Command{Kind: Quit, Text: args}

	case "/msg":
		target, text := splitWord(args)
		if target == "" || text == "" {
			return Command{Kind: Help, Usage: usageMsg}
		}
		return Command{Kind: Msg, Target: target, Text: text}

	case "/join":
		if args == "" {
			return Command{Kind: Help, Usage: usageJoin}
		}
		return Command{Kind: Join, Target: args}

	case "/part":
		return Command{Kind: Part, Text: args}

	case "/nick":
		if args == "" {
			return Command{Kind: Help, Usage: usageNick}
		}
		return Command{Kind: Nick, Target: firstWord(args)}

	case "/list":
		return Command{Kind: List}

	case "/topic":
		return Command{Kind: Topic, Text: args}

	case "/away":
		return Command{Kind: Away, Text: args}

	case "/me":
		if args == "" {
			return Command{Kind: Help, Usage: usageMe}
		}
		return Command{Kind: Action, Text: args}

	case "/whois":
		if args == "" {
			return Command{Kind: Help, Usage: usageWhois}
		}
		return Command{Kind: Whois, Target: firstWord(args)}

	case "/names":
		return Command{Kind: Names}

	case "/slap":
		if args == "" {
			return Command{Kind: Help, Usage: usageSlap}
		}
		return Command{Kind: Slap, Target: firstWord(args)}

	case "/lid":
		return Command{Kind: Lid, Target: firstWord(args)}

	case "/help":
		return Command{Kind: Help}

	default:
		return Command{Kind: Help, Unknown: verb}
	}
}

// splitVerb splits "/verb rest of line" into a lowercased verb and its
// argument string.
func splitVerb(line string) (verb, args string) {
	parts := strings.SplitN(line, " ", 2)
	verb = strings.ToLower(parts[0])
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}
	return verb, args
}

// splitWord splits args into its first word and the trimmed remainder.
func splitWord(args string) (word, rest string) {
	parts := strings.SplitN(args, " ", 2)
	word = parts[0]
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return word, rest
}

func firstWord(args string) string {
	w, _ := splitWord(args)
	return w
}
