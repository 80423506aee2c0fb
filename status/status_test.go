package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/presbrey/packetirc/session"
)

func TestMetricsImplementStats(t *testing.T) {
	var _ session.Stats = NewMetrics()
}

func TestStatusBeforeCallsign(t *testing.T) {
	srv := NewServer(NewMetrics(), func() *session.Session { return nil }, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "awaiting_callsign", body["state"])
}

func TestStatusSnapshot(t *testing.T) {
	sess := session.New("N0CALL")
	require.NoError(t, sess.BeginRegistration())
	require.NoError(t, sess.ApplyEvent(session.Event{Type: session.EventWelcome, Nick: "N0CALL"}))

	srv := NewServer(NewMetrics(), func() *session.Session { return sess }, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "N0CALL", snap.Callsign)
	assert.Equal(t, "registered", snap.State)
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics()
	m.OperatorLineIn()
	m.OperatorLineOut()
	m.CommandDispatched("join")
	m.FilterHit()
	m.IRCError()

	srv := NewServer(m, func() *session.Session { return nil }, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "packetirc_operator_lines_in_total 1")
	assert.Contains(t, body, `packetirc_commands_total{verb="join"} 1`)
	assert.Contains(t, body, "packetirc_filter_hits_total 1")
	assert.Contains(t, body, "packetirc_irc_errors_total 1")
}
