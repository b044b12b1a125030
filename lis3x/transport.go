// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3x

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"

	"github.com/GermanBionicSystems/accel/softspi"
)

// DebugF the debug function type.
type DebugF func(string, ...interface{})

var errNoTransport = errors.New("lis3x: no transport bound")

// busKind tags which binding a transport uses.
type busKind uint8

const (
	busNone busKind = iota
	busI2C
	busSPI
	busSoftSPI
)

func (k busKind) String() string {
	switch k {
	case busI2C:
		return "I2C"
	case busSPI:
		return "SPI"
	case busSoftSPI:
		return "SoftSPI"
	default:
		return "none"
	}
}

// transport performs addressed register reads and writes. Exactly one of i2c
// and spi is set, as selected by kind.
type transport struct {
	kind  busKind
	i2c   *i2c.Dev
	spi   spi.Conn
	cs    gpio.PinOut // Optional chip select driven by hand on hardware SPI.
	debug DebugF
}

func newI2CTransport(b i2c.Bus, addr uint16) *transport {
	return &transport{kind: busI2C, i2c: &i2c.Dev{Bus: b, Addr: addr}, debug: noop}
}

// newSPITransport connects to p. When cs is not nil the port is opened with
// spi.NoCS and cs is toggled around every transfer.
func newSPITransport(p spi.Port, cs gpio.PinOut) (*transport, error) {
	mode := SpiMode
	if cs != nil {
		mode |= spi.NoCS
		if err := cs.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("lis3x: can't deassert chip select: %w", err)
		}
	}
	c, err := p.Connect(SpiFrequency, mode, SpiBits)
	if err != nil {
		return nil, fmt.Errorf("lis3x: can't initialize SPI: %w", err)
	}
	return &transport{kind: busSPI, spi: c, cs: cs, debug: noop}, nil
}

func newSoftSPITransport(cs, mosi, sck gpio.PinOut, miso gpio.PinIn) (*transport, error) {
	p, err := softspi.New(cs, mosi, sck, miso)
	if err != nil {
		return nil, fmt.Errorf("lis3x: can't open software SPI: %w", err)
	}
	c, err := p.Connect(SoftSpiFrequency, SpiMode, SpiBits)
	if err != nil {
		return nil, fmt.Errorf("lis3x: can't initialize software SPI: %w", err)
	}
	return &transport{kind: busSoftSPI, spi: c, debug: noop}, nil
}

func (t *transport) String() string {
	switch t.kind {
	case busI2C:
		return t.i2c.String()
	case busSPI, busSoftSPI:
		return fmt.Sprintf("%s(%s)", t.kind, t.spi)
	default:
		return t.kind.String()
	}
}

// read returns n bytes starting at reg. Reads longer than one byte set the
// auto-increment flag.
func (t *transport) read(reg byte, n int) ([]byte, error) {
	switch t.kind {
	case busI2C:
		addr := reg
		if n > 1 {
			addr |= i2cAutoIncrement
		}
		r := make([]byte, n)
		if err := t.i2c.Tx([]byte{addr}, r); err != nil {
			return nil, err
		}
		t.debug("read %#02x: % x", addr, r)
		return r, nil
	case busSPI, busSoftSPI:
		addr := reg | spiRead
		if n > 1 {
			addr |= spiAutoIncrement
		}
		w := make([]byte, n+1)
		w[0] = addr
		r := make([]byte, n+1)
		if err := t.txSPI(w, r); err != nil {
			return nil, err
		}
		t.debug("read %#02x: % x", addr, r[1:])
		return r[1:], nil
	default:
		return nil, errNoTransport
	}
}

func (t *transport) readByte(reg byte) (byte, error) {
	r, err := t.read(reg, 1)
	if err != nil {
		return 0, err
	}
	return r[0], nil
}

// write stores data starting at reg.
func (t *transport) write(reg byte, data ...byte) error {
	var addr byte
	switch t.kind {
	case busI2C:
		addr = reg
		if len(data) > 1 {
			addr |= i2cAutoIncrement
		}
	case busSPI, busSoftSPI:
		addr = reg
		if len(data) > 1 {
			addr |= spiAutoIncrement
		}
	default:
		return errNoTransport
	}
	t.debug("write %#02x: % x", addr, data)
	w := append([]byte{addr}, data...)
	if t.kind == busI2C {
		return t.i2c.Tx(w, nil)
	}
	return t.txSPI(w, make([]byte, len(w)))
}

func (t *transport) txSPI(w, r []byte) error {
	if t.cs == nil {
		return t.spi.Tx(w, r)
	}
	if err := t.cs.Out(gpio.Low); err != nil {
		return err
	}
	if err := t.spi.Tx(w, r); err != nil {
		_ = t.cs.Out(gpio.High)
		return err
	}
	return t.cs.Out(gpio.High)
}

// bitField is a sub-range of bits within one register.
type bitField struct {
	reg   byte
	width uint8
	shift uint8
}

func (f bitField) mask() byte {
	return byte((uint(1)<<f.width - 1) << f.shift)
}

// readBits returns the field value, right aligned.
func (t *transport) readBits(f bitField) (byte, error) {
	v, err := t.readByte(f.reg)
	if err != nil {
		return 0, err
	}
	return (v & f.mask()) >> f.shift, nil
}

// writeBits replaces the field with v, leaving the other bits of the register
// untouched.
func (t *transport) writeBits(f bitField, v byte) error {
	cur, err := t.readByte(f.reg)
	if err != nil {
		return err
	}
	m := f.mask()
	return t.write(f.reg, (cur&^m)|((v<<f.shift)&m))
}

func noop(string, ...interface{}) {}
