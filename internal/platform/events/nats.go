package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	SubjectLedgerPrefix = "mediclass.history."
	SubjectPriority     = "mediclass.priority"
)

// NATSPublisher publishes JSON events on core NATS subjects:
// mediclass.history.<cpf> for ledger entries and mediclass.priority for
// alerts.
type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("mediclass-server"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) PublishLedger(_ context.Context, evs ...LedgerAppended) error {
	for _, ev := range evs {
		if err := p.publish(SubjectLedgerPrefix+ev.PatientID, ev); err != nil {
			return err
		}
	}
	return nil
}

func (p *NATSPublisher) PublishPriority(_ context.Context, ev PriorityRaised) error {
	return p.publish(SubjectPriority, ev)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
