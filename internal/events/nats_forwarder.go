package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// SubjectPrefix is prepended to the signal name when forwarding to NATS
const SubjectPrefix = "hazard.signals."

// NATSForwarder republishes bus events on NATS so other processes can refresh
type NATSForwarder struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewNATSForwarder connects to NATS
func NewNATSForwarder(natsURL string, logger *logrus.Logger) (*NATSForwarder, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS_URL not set")
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("hazard-service"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSForwarder{
		conn:   conn,
		logger: logger.WithField("component", "events.nats"),
	}, nil
}

// Subject returns the NATS subject for an event
func Subject(event Event) string {
	return SubjectPrefix + string(event.Signal)
}

// Attach subscribes the forwarder to every signal on bus
func (f *NATSForwarder) Attach(bus *Bus) func() {
	return bus.Subscribe(f.forward)
}

// forward publishes without blocking the bus; failures are only logged
func (f *NATSForwarder) forward(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		f.logger.WithError(err).Error("Failed to marshal event")
		return
	}

	go func() {
		if err := f.conn.Publish(Subject(event), data); err != nil {
			f.logger.WithFields(logrus.Fields{
				"signal":   event.Signal,
				"entity":   event.Entity,
				"entityId": event.EntityID,
			}).WithError(err).Error("Failed to forward event")
			return
		}
		f.logger.WithFields(logrus.Fields{
			"signal": event.Signal,
			"action": event.Action,
		}).Debug("Event forwarded")
	}()
}

// IsConnected returns true if connected to NATS
func (f *NATSForwarder) IsConnected() bool {
	return f.conn != nil && f.conn.IsConnected()
}

// Close drains and closes the NATS connection
func (f *NATSForwarder) Close() {
	if f.conn != nil {
		_ = f.conn.Drain()
	}
}
