package session

// EventType identifies an inbound IRC protocol occurrence. The wire
// adapter classifies raw server traffic into these before the core ever
// sees it; keepalive PING/PONG is answered at the wire layer and has no
// event type here.
type EventType int

const (
	EventWelcome EventType = iota
	EventJoined
	EventParted
	EventQuit
	EventKicked
	EventPrivMsg
	EventAction
	EventNotice
	EventNickChanged
	EventTopicChanged
	EventCurrentTopic
	EventNamesReply
	EventWhoisReply
	EventListReply
	EventMOTD
	EventError
	EventDisconnected
)

var eventNames = map[EventType]string{
	EventWelcome:      "welcome",
	EventJoined:       "joined",
	EventParted:       "parted",
	EventQuit:         "quit",
	EventKicked:       "kicked",
	EventPrivMsg:      "privmsg",
	EventAction:       "action",
	EventNotice:       "notice",
	EventNickChanged:  "nick_changed",
	EventTopicChanged: "topic_changed",
	EventCurrentTopic: "current_topic",
	EventNamesReply:   "names_reply",
	EventWhoisReply:   "whois_reply",
	EventListReply:    "list_reply",
	EventMOTD:         "motd",
	EventError:        "error",
	EventDisconnected: "disconnected",
}

func (t EventType) String() string {
	if n, ok := eventNames[t]; ok {
		return n
	}
	return "unknown"
}

// WhoisInfo carries the fields of a WHOIS user reply.
type WhoisInfo struct {
	Nick     string
	Username string
	Host     string
	Server   string
	RealName string
}

// Event is one inbound IRC occurrence, read-only to the core. Which
// fields are meaningful depends on Type:
//
//	Welcome       Nick (our confirmed nick), Text (server name)
//	Joined        Nick, Target (channel)
//	Parted        Nick, Target, Text (reason)
//	Quit          Nick, Text (reason)
//	Kicked        Nick (kicked user), Target, Text (reason)
//	PrivMsg       Nick (sender), Target (channel or our nick), Text
//	Action        Nick, Target, Text
//	Notice        Nick (may be empty for server), Text
//	NickChanged   Nick (old), NewNick
//	TopicChanged  Nick (who), Target, Text (new topic)
//	CurrentTopic  Target, Text
//	NamesReply    Target, Names
//	WhoisReply    Whois
//	ListReply     Target (channel), Count (user count), Text (topic)
//	MOTD          Text
//	Error         Code, Text
//	Disconnected  Text (reason, may be empty)
type Event struct {
	Type    EventType
	Nick    string
	Target  string
	Text    string
	NewNick string
	Code    string
	Count   string
	Names   []string
	Whois   WhoisInfo
}
