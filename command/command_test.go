package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChat(t *testing.T) {
	for _, line := range []string{"hello world", "not/a/command", "73 de N0CALL"} {
		cmd := Parse(line)
		assert.Equal(t, Chat, cmd.Kind)
		assert.Equal(t, line, cmd.Text)
	}
}

func TestParseKnownVerbs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Command
	}{
		{"quit bare", "/quit", Command{Kind: Quit}},
		{"quit message", "/quit gone for lunch", Command{Kind: Quit, Text: "gone for lunch"}},
		{"msg", "/msg bob hello there", Command{Kind: Msg, Target: "bob", Text: "hello there"}},
		{"join", "/join #packet", Command{Kind: Join, Target: "#packet"}},
		{"part bare", "/part", Command{Kind: Part}},
		{"part reason", "/part moving on", Command{Kind: Part, Text: "moving on"}},
		{"nick", "/nick alice_r", Command{Kind: Nick, Target: "alice_r"}},
		{"list", "/list", Command{Kind: List}},
		{"topic query", "/topic", Command{Kind: Topic}},
		{"topic set", "/topic antennas and coax", Command{Kind: Topic, Text: "antennas and coax"}},
		{"away bare", "/away", Command{Kind: Away}},
		{"away text", "/away back in 10", Command{Kind: Away, Text: "back in 10"}},
		{"me", "/me waves", Command{Kind: Action, Text: "waves"}},
		{"whois", "/whois bob", Command{Kind: Whois, Target: "bob"}},
		{"names", "/names", Command{Kind: Names}},
		{"slap", "/slap bob", Command{Kind: Slap, Target: "bob"}},
		{"lid bare", "/lid", Command{Kind: Lid}},
		{"lid target", "/lid bob", Command{Kind: Lid, Target: "bob"}},
		{"help", "/help", Command{Kind: Help}},
		{"case insensitive", "/MSG Bob hi", Command{Kind: Msg, Target: "Bob", Text: "hi"}},
		{"surrounding whitespace", "  /join #packet  ", Command{Kind: Join, Target: "#packet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestParseArityErrors(t *testing.T) {
	tests := []string{"/msg", "/msg bob", "/join", "/nick", "/me", "/whois", "/slap"}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			cmd := Parse(in)
			assert.Equal(t, Help, cmd.Kind)
			assert.NotEmpty(t, cmd.Usage, "arity error must echo usage")
			assert.Empty(t, cmd.Unknown)
		})
	}
}

func TestParseUnknownVerb(t *testing.T) {
	cmd := Parse("/frobnicate now")
	assert.Equal(t, Help, cmd.Kind)
	assert.Equal(t, "/frobnicate", cmd.Unknown)
}

func TestParseEmptyLine(t *testing.T) {
	assert.Equal(t, None, Parse("").Kind)
	assert.Equal(t, None, Parse("   ").Kind)
}

func TestValidChannel(t *testing.T) {
	assert.True(t, ValidChannel("#packet"))
	assert.True(t, ValidChannel("#a"))
	assert.False(t, ValidChannel("packet"))
	assert.False(t, ValidChannel("#"))
	assert.False(t, ValidChannel("#two words"))
	assert.False(t, ValidChannel("#a,b"))
}
