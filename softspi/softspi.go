// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package softspi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3/cpu"
)

// Port is a software SPI port. It implements spi.PortCloser and spi.Pins.
type Port struct {
	cs   gpio.PinOut
	mosi gpio.PinOut
	miso gpio.PinIn
	sck  gpio.PinOut

	mu         sync.Mutex
	limit      physic.Frequency
	connected  bool
	mode       spi.Mode
	halfPeriod time.Duration
}

// New returns a software SPI port using the four pins.
//
// cs may be gpio.INVALID when the device chip select is handled elsewhere; in
// that case Connect must be called with spi.NoCS.
func New(cs, mosi, sck gpio.PinOut, miso gpio.PinIn) (*Port, error) {
	if cs == nil || mosi == nil || sck == nil || miso == nil {
		return nil, errors.New("softspi: all four pins must be specified")
	}
	if err := miso.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("softspi: can't set %s as input: %w", miso, err)
	}
	if err := mosi.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("softspi: can't set %s as output: %w", mosi, err)
	}
	if cs != gpio.INVALID {
		if err := cs.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("softspi: can't deassert %s: %w", cs, err)
		}
	}
	return &Port{cs: cs, mosi: mosi, miso: miso, sck: sck}, nil
}

func (p *Port) String() string {
	return fmt.Sprintf("softspi(CS=%s, MOSI=%s, MISO=%s, CLK=%s)", p.cs, p.mosi, p.miso, p.sck)
}

// Close deasserts the chip select and releases the port so Connect can be
// called again.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	if p.cs == gpio.INVALID {
		return nil
	}
	return p.cs.Out(gpio.High)
}

// LimitSpeed implements spi.PortCloser.
func (p *Port) LimitSpeed(f physic.Frequency) error {
	if f <= 0 {
		return errors.New("softspi: invalid speed")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limit = f
	return nil
}

// Connect implements spi.Port.
//
// f is the maximum clock speed; 0 means toggling the pins as fast as
// possible.
func (p *Port) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	if bits != 8 {
		return nil, fmt.Errorf("softspi: %d bits per word is not supported", bits)
	}
	if mode&spi.HalfDuplex != 0 {
		return nil, errors.New("softspi: half duplex is not supported")
	}
	if mode&spi.NoCS == 0 && p.cs == gpio.INVALID {
		return nil, errors.New("softspi: no CS pin, use spi.NoCS")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return nil, errors.New("softspi: Connect cannot be called twice")
	}
	if p.limit != 0 && (f == 0 || p.limit < f) {
		f = p.limit
	}
	p.halfPeriod = 0
	if f > 0 {
		p.halfPeriod = f.Period() / 2
	}
	p.mode = mode
	if err := p.sck.Out(p.idle()); err != nil {
		return nil, fmt.Errorf("softspi: can't idle %s: %w", p.sck, err)
	}
	p.connected = true
	return &spiConn{p: p}, nil
}

// CLK implements spi.Pins.
func (p *Port) CLK() gpio.PinOut {
	return p.sck
}

// MOSI implements spi.Pins.
func (p *Port) MOSI() gpio.PinOut {
	return p.mosi
}

// MISO implements spi.Pins.
func (p *Port) MISO() gpio.PinIn {
	return p.miso
}

// CS implements spi.Pins.
func (p *Port) CS() gpio.PinOut {
	return p.cs
}

// idle is the clock level between transfers (CPOL).
func (p *Port) idle() gpio.Level {
	return p.mode&spi.Mode2 != 0
}

// wait spins until half a clock period elapsed since since.
func (p *Port) wait(since time.Time) {
	if d := p.halfPeriod - time.Since(since); d > 0 {
		cpu.Nanospin(d)
	}
}

func (p *Port) selectChip(l gpio.Level) error {
	if p.mode&spi.NoCS != 0 {
		return nil
	}
	return p.cs.Out(l)
}

// transfer clocks len(w) or len(r) bytes, whichever is longer. Missing write
// bytes are sent as zero.
func (p *Port) transfer(w, r []byte) error {
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var out byte
		if i < len(w) {
			out = w[i]
		}
		in, err := p.transferByte(out)
		if err != nil {
			return err
		}
		if i < len(r) {
			r[i] = in
		}
	}
	return nil
}

func (p *Port) transferByte(out byte) (byte, error) {
	idle := p.idle()
	cpha := p.mode&spi.Mode1 != 0
	lsb := p.mode&spi.LSBFirst != 0
	var in byte
	for i := 0; i < 8; i++ {
		bit := uint(7 - i)
		if lsb {
			bit = uint(i)
		}
		level := gpio.Level(out&(1<<bit) != 0)
		start := time.Now()
		if cpha {
			// Shift out on the leading edge, sample on the trailing one.
			if err := p.sck.Out(!idle); err != nil {
				return 0, err
			}
			if err := p.mosi.Out(level); err != nil {
				return 0, err
			}
			p.wait(start)
			start = time.Now()
			if err := p.sck.Out(idle); err != nil {
				return 0, err
			}
			if p.miso.Read() {
				in |= 1 << bit
			}
			p.wait(start)
			continue
		}
		if err := p.mosi.Out(level); err != nil {
			return 0, err
		}
		p.wait(start)
		start = time.Now()
		if err := p.sck.Out(!idle); err != nil {
			return 0, err
		}
		if p.miso.Read() {
			in |= 1 << bit
		}
		p.wait(start)
		if err := p.sck.Out(idle); err != nil {
			return 0, err
		}
	}
	return in, nil
}

// spiConn is the spi.Conn returned by Port.Connect.
type spiConn struct {
	p *Port
}

func (c *spiConn) String() string {
	return c.p.String()
}

func (c *spiConn) Duplex() conn.Duplex {
	return conn.Full
}

// Tx asserts CS, exchanges the bytes and deasserts CS.
func (c *spiConn) Tx(w, r []byte) error {
	if len(r) != 0 && len(w) != 0 && len(r) != len(w) {
		return errors.New("softspi: Tx with mismatched buffer lengths")
	}
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	if err := c.p.selectChip(gpio.Low); err != nil {
		return err
	}
	err := c.p.transfer(w, r)
	if err2 := c.p.selectChip(gpio.High); err == nil {
		err = err2
	}
	return err
}

// TxPackets implements spi.Conn. CS stays asserted across packets marked
// KeepCS.
func (c *spiConn) TxPackets(pkts []spi.Packet) error {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	selected := false
	for _, pkt := range pkts {
		if pkt.BitsPerWord != 0 && pkt.BitsPerWord != 8 {
			return fmt.Errorf("softspi: %d bits per word is not supported", pkt.BitsPerWord)
		}
		if !selected {
			if err := c.p.selectChip(gpio.Low); err != nil {
				return err
			}
			selected = true
		}
		if err := c.p.transfer(pkt.W, pkt.R); err != nil {
			_ = c.p.selectChip(gpio.High)
			return err
		}
		if !pkt.KeepCS {
			if err := c.p.selectChip(gpio.High); err != nil {
				return err
			}
			selected = false
		}
	}
	return nil
}

func (c *spiConn) CLK() gpio.PinOut {
	return c.p.sck
}

func (c *spiConn) MOSI() gpio.PinOut {
	return c.p.mosi
}

func (c *spiConn) MISO() gpio.PinIn {
	return c.p.miso
}

func (c *spiConn) CS() gpio.PinOut {
	return c.p.cs
}

var _ spi.PortCloser = &Port{}
var _ spi.Pins = &Port{}
var _ spi.Conn = &spiConn{}
var _ spi.Pins = &spiConn{}
