package bus

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/TamimulAhsan/sentineliam/core/infra/logging"
)

// Subjects for catalog change events other console components subscribe to.
const (
	SubjectCatalogLoaded = "policy.catalog.loaded"
	SubjectPolicySaved   = "policy.saved"
	SubjectPolicyDeleted = "policy.deleted"
)

var (
	errNilBus       = errors.New("event bus not initialized")
	errEmptySubject = errors.New("empty subject")
)

// Publisher emits catalog change events. Implementations are fire-and-forget;
// a lost event is not an error the catalog acts on.
type Publisher interface {
	Publish(subject string, event any) error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(string, any) error { return nil }

// NatsBus publishes JSON-encoded events over a NATS connection.
type NatsBus struct {
	nc *nats.Conn
}

// NewNatsBus dials NATS at the provided URL.
func NewNatsBus(url string) (*NatsBus, error) {
	opts := []nats.Option{
		nats.Name("sentineliam-events"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("bus", "disconnected from NATS", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("bus", "reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NatsBus{nc: nc}, nil
}

// Publish sends a JSON-encoded event on the given subject.
func (b *NatsBus) Publish(subject string, event any) error {
	if b == nil || b.nc == nil {
		return errNilBus
	}
	if subject == "" {
		return errEmptySubject
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.nc.Publish(subject, data)
}

// Subscribe attaches a handler that decodes event payloads as raw JSON.
func (b *NatsBus) Subscribe(subject string, handler func(subject string, data json.RawMessage)) error {
	if b == nil || b.nc == nil {
		return errNilBus
	}
	if subject == "" {
		return errEmptySubject
	}
	if handler == nil {
		return errors.New("nil handler")
	}
	_, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, json.RawMessage(msg.Data))
	})
	return err
}

// IsConnected reports whether the underlying connection is live.
func (b *NatsBus) IsConnected() bool {
	return b != nil && b.nc != nil && b.nc.IsConnected()
}

// Close shuts down the underlying NATS connection.
func (b *NatsBus) Close() {
	if b != nil && b.nc != nil {
		b.nc.Close()
	}
}
