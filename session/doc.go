/*
Package session implements the PacketIRC gateway core: the bidirectional
protocol-translation state machine between one packet-radio operator
connection and one IRC server connection.

# Data flow

Operator line → command.Parse → local action or outbound IRC command
(state pre-updated where the protocol allows, e.g. optimistic /nick).
Inbound IRC event → Translator (state mutation + content filter) → budget
rendering → operator stream.

# Concurrency

Two input sources are serviced per session: the narrowband operator
stream, where lines arrive irregularly with seconds-scale latency, and
the IRC event stream, which can burst. Each is pumped by its own reader
goroutine into the single Loop.Run goroutine, which owns every Session
mutation. Output lines are written in generation order; inbound events
are applied in wire order. Closing either stream tears the whole session
down within a bounded grace period, sending a best-effort QUIT first.

One process instance serves exactly one operator and one IRC connection,
so there is no cross-session state of any kind.
*/
package session
