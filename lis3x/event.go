// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3x

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"
)

// SensorType identifies the kind of measurement carried by an Event.
type SensorType int32

// SensorTypeAccelerometer is the type of every Event and Sensor of this
// package.
const SensorTypeAccelerometer SensorType = 1

// EventVersion is stamped in Event.Version.
const EventVersion = 1

// StandardGravity is 1g in m/s².
var StandardGravity = float64(physic.EarthGravity) / float64(physic.Newton)

// Event is one acceleration sample.
type Event struct {
	Version   int
	SensorID  int32
	Type      SensorType
	Timestamp time.Time
	// Acceleration in m/s².
	Acceleration Vector
}

// Sensor describes the device.
//
// Bounds and resolution are not reported and are left at zero.
type Sensor struct {
	Name       string
	Version    int
	SensorID   int32
	Type       SensorType
	MinDelay   time.Duration
	MaxValue   float64
	MinValue   float64
	Resolution float64
}

// Sense reads a sample and stores it in e in m/s². e is left untouched on
// error.
func (d *Dev) Sense(e *Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.read(); err != nil {
		return err
	}
	*e = Event{
		Version:   EventVersion,
		SensorID:  d.sensorID,
		Type:      SensorTypeAccelerometer,
		Timestamp: d.clock.Now(),
		Acceleration: Vector{
			X: d.g.X * StandardGravity,
			Y: d.g.Y * StandardGravity,
			Z: d.g.Z * StandardGravity,
		},
	}
	return nil
}

// SensorInfo returns the static description of the device. It doesn't access
// the bus.
//
// Name is the chip variant, e.g. "LIS331HH" or "H3LIS331", not a single family
// name.
func (d *Dev) SensorInfo() Sensor {
	return Sensor{
		Name:     d.variant.Name,
		Version:  1,
		SensorID: d.sensorID,
		Type:     SensorTypeAccelerometer,
	}
}

// SenseContinuous reads a sample every interval and sends it on the returned
// channel. Samples are dropped when the reader falls behind and failed reads
// are skipped. Call Halt to stop; the channel is then closed.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Event, error) {
	if interval < time.Millisecond {
		return nil, errors.New("lis3x: invalid interval, minimum 1ms")
	}
	d.mu.Lock()
	if d.stop != nil {
		d.mu.Unlock()
		return nil, errors.New("lis3x: already sensing continuously")
	}
	stop := make(chan struct{})
	d.stop = stop
	ticker := d.clock.NewTicker(interval)
	d.mu.Unlock()

	const channelSize = 16
	ch := make(chan Event, channelSize)
	go func() {
		defer close(ch)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				select {
				case <-stop:
					return
				default:
				}
				var e Event
				if err := d.Sense(&e); err != nil {
					continue
				}
				select {
				case ch <- e:
				default:
				}
			}
		}
	}()
	return ch, nil
}
