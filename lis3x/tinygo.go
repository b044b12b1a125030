// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3x

import (
	"errors"
	"math"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// NewTinyGoI2C returns a device on a TinyGo style I²C bus, e.g. machine.I2C0.
func NewTinyGoI2C(b drivers.I2C, addr uint16, opts *Opts) (*Dev, error) {
	return NewI2C(&tinyGoBus{b: b}, addr, opts)
}

// tinyGoBus adapts a drivers.I2C to i2c.Bus.
type tinyGoBus struct {
	b drivers.I2C
}

func (t *tinyGoBus) String() string {
	return "tinygo-i2c"
}

func (t *tinyGoBus) Tx(addr uint16, w, r []byte) error {
	return t.b.Tx(addr, w, r)
}

func (t *tinyGoBus) SetSpeed(f physic.Frequency) error {
	return errors.New("lis3x: the TinyGo bus speed is set by its owner")
}

// Update implements drivers.Sensor. It reads a sample when
// drivers.Acceleration is requested.
func (d *Dev) Update(which drivers.Measurement) error {
	if which&drivers.Acceleration == 0 {
		return nil
	}
	return d.Read()
}

// ReadAcceleration reads a sample and returns it in µg, like the TinyGo
// accelerometer drivers.
func (d *Dev) ReadAcceleration() (x, y, z int32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err = d.read(); err != nil {
		return 0, 0, 0, err
	}
	return int32(math.Round(d.g.X * 1e6)), int32(math.Round(d.g.Y * 1e6)), int32(math.Round(d.g.Z * 1e6)), nil
}

var _ i2c.Bus = &tinyGoBus{}
var _ drivers.Sensor = &Dev{}
