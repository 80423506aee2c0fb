package session

// Stats receives session activity counters. The status package provides a
// Prometheus-backed implementation; NopStats is used when the status
// endpoint is disabled.
type Stats interface {
	OperatorLineIn()
	OperatorLineOut()
	CommandDispatched(verb string)
	FilterHit()
	IRCError()
}

// NopStats discards all counters.
type NopStats struct{}

func (NopStats) OperatorLineIn()          {}
func (NopStats) OperatorLineOut()         {}
func (NopStats) CommandDispatched(string) {}
func (NopStats) FilterHit()               {}
func (NopStats) IRCError()                {}
