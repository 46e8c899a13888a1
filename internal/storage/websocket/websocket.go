// Package websocket streams device lifecycle and pose samples to a live
// debug viewer as JSON envelopes. It implements storage.Sink; everything is
// fire-and-forget and a broken stream never affects recording.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vexlab/svr-debug/pkg/core"
	"github.com/vexlab/svr-debug/pkg/streaming"
)

// Config holds WebSocket sink configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams session data over WebSocket.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket sink.
func New(cfg Config) *Backend {
	return &Backend{
		conn: newConnection(slog.Default()),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it to the
// write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartSession announces the session to the viewer.
func (b *Backend) StartSession(s *core.Session) error {
	return b.sendEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{
		Tag:              s.Tag,
		StartTime:        s.StartTime,
		HostName:         s.HostName,
		ExtensionVersion: s.ExtensionVersion,
	})
}

// EndSession closes the session on the viewer side.
func (b *Backend) EndSession() error {
	return b.sendEnvelope(streaming.TypeEndSession, streaming.EndSessionPayload{
		EndTime: time.Now(),
	})
}

// AddDevice streams a device connect.
func (b *Backend) AddDevice(d core.TrackedDevice) error {
	return b.sendEnvelope(streaming.TypeAddDevice, streaming.AddDevicePayload{
		Index:  d.Index,
		Class:  d.Class.String(),
		Serial: d.Serial,
	})
}

// RemoveDevice streams a device disconnect.
func (b *Backend) RemoveDevice(index uint32) error {
	return b.sendEnvelope(streaming.TypeRemoveDevice, streaming.RemoveDevicePayload{
		Index: index,
	})
}

// RecordSample streams one pose sample.
func (b *Backend) RecordSample(s core.PoseSample) error {
	return b.sendEnvelope(streaming.TypePoseSample, streaming.PoseSamplePayload{
		Timestamp:   s.Timestamp,
		DeviceIndex: s.DeviceIndex,
		Class:       s.Class.String(),
		Position:    s.Position,
		Orientation: s.Orientation,
	})
}
