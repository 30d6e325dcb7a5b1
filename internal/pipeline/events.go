package pipeline

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher best-effort publishes each StepResult to a configured NATS
// subject as it completes, so an external dashboard can observe a running
// pipeline without polling the profile file. Connection failures are
// non-fatal: the pipeline run is never blocked on event delivery.
type NATSPublisher struct {
	subject string
	mu      sync.RWMutex
	conn    *nats.Conn
	logger  *slog.Logger
}

// NewNATSPublisher connects to url and returns a Publisher bound to subject.
// A connection failure is logged and returns a Publisher that silently
// drops every event, rather than failing pipeline setup; the failed
// connection is not retried.
func NewNATSPublisher(url, subject string, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &NATSPublisher{subject: subject, logger: logger}

	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		logger.Warn("nats connect failed, events will be dropped", slog.String("url", url), slog.String("error", err.Error()))
		return p
	}

	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	return p
}

// Publish implements pipeline.Publisher.
func (p *NATSPublisher) Publish(result StepResult) {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn("marshal step result for publish", slog.String("error", err.Error()))
		return
	}
	if err := conn.Publish(p.subject, data); err != nil {
		p.logger.Warn("publish step result", slog.String("error", err.Error()))
	}
}

// Close releases the underlying NATS connection, if any.
func (p *NATSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
