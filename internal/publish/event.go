// Package publish forwards accelerometer notifications to network sinks.
package publish

import (
	"encoding/json"
	"time"

	"go.uber.org/multierr"

	"accelwake/internal/accel"
)

// Event is the wire form of a notification.
type Event struct {
	Time     time.Time `json:"time"`
	Type     string    `json:"type"`
	XMilliG  int32     `json:"x_mg"`
	YMilliG  int32     `json:"y_mg"`
	ZMilliG  int32     `json:"z_mg"`
	Severity uint32    `json:"severity,omitempty"`
}

func FromNotification(n accel.Notification, at time.Time) Event {
	x, y, z := n.Vector.MilliG()
	return Event{
		Time:     at.UTC(),
		Type:     n.Type.String(),
		XMilliG:  x,
		YMilliG:  y,
		ZMilliG:  z,
		Severity: n.Severity,
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type Sink interface {
	Publish(ev Event) error
	Close() error
}

// Multi fans an event out to every sink. Errors from all sinks are
// combined.
type Multi []Sink

func (m Multi) Publish(ev Event) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Publish(ev))
	}
	return err
}

func (m Multi) Close() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Close())
	}
	return err
}
