// Package status serves the optional local status and metrics endpoint.
// It exposes a JSON snapshot of the live session and Prometheus counters
// for gateway activity. The endpoint binds to loopback by default and is
// disabled unless the configuration turns it on.
package status

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/presbrey/packetirc/session"
)

// Metrics holds the gateway's Prometheus counters. It implements
// session.Stats.
type Metrics struct {
	registry *prometheus.Registry

	linesIn   prometheus.Counter
	linesOut  prometheus.Counter
	commands  *prometheus.CounterVec
	filterHit prometheus.Counter
	ircErrors prometheus.Counter
}

// NewMetrics creates the counter set on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return &Metrics{
		registry: reg,
		linesIn: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "packetirc_operator_lines_in_total",
			Help: "Lines received from the operator stream",
		}),
		linesOut: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "packetirc_operator_lines_out_total",
			Help: "Lines written to the operator stream",
		}),
		commands: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "packetirc_commands_total",
			Help: "Operator commands dispatched by verb",
		}, []string{"verb"}),
		filterHit: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "packetirc_filter_hits_total",
			Help: "Texts containing forbidden content, either direction",
		}),
		ircErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "packetirc_irc_errors_total",
			Help: "IRC error events received from the server",
		}),
	}
}

func (m *Metrics) OperatorLineIn()  { m.linesIn.Inc() }
func (m *Metrics) OperatorLineOut() { m.linesOut.Inc() }

func (m *Metrics) CommandDispatched(verb string) {
	m.commands.WithLabelValues(verb).Inc()
}

func (m *Metrics) FilterHit() { m.filterHit.Inc() }
func (m *Metrics) IRCError()  { m.ircErrors.Inc() }

// Server is the status HTTP endpoint.
type Server struct {
	echo    *echo.Echo
	log     *zap.Logger
	metrics *Metrics

	// SessionFunc returns the live session, or nil before the callsign
	// handshake completed.
	SessionFunc func() *session.Session
}

// NewServer builds the endpoint with its routes registered.
func NewServer(metrics *Metrics, sessionFunc func() *session.Session, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, log: log, metrics: metrics, SessionFunc: sessionFunc}
	e.GET("/status", s.handleStatus)
	e.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})))
	return s
}

// Start serves on addr until Shutdown. Errors other than a clean close
// are logged, never fatal: losing the status endpoint must not take the
// session down.
func (s *Server) Start(addr string) {
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.log.Warn("status endpoint stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the endpoint, bounded by a short timeout.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Debug("status endpoint shutdown", zap.Error(err))
	}
}

func (s *Server) handleStatus(c echo.Context) error {
	sess := s.SessionFunc()
	if sess == nil {
		return c.JSON(http.StatusOK, map[string]string{"state": "awaiting_callsign"})
	}
	return c.JSON(http.StatusOK, sess.Snapshot())
}
