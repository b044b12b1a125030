// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3x

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// chip simulates the register file of a LIS331. It answers on I²C directly
// and on SPI through spiChip and softWire.
type chip struct {
	sync.Mutex
	regs [0x40]byte
	// addrs holds the address byte of every transaction, flags included.
	addrs []byte
}

func newChip() *chip {
	c := &chip{}
	c.regs[regWhoAmI] = ChipID
	return c
}

func (c *chip) String() string {
	return "chip"
}

func (c *chip) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus.
func (c *chip) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 {
		return errors.New("chip: missing register address")
	}
	c.Lock()
	defer c.Unlock()
	c.addrs = append(c.addrs, w[0])
	c.access(w[0]&^i2cAutoIncrement, w[0]&i2cAutoIncrement != 0, w[1:], r)
	return nil
}

func (c *chip) access(reg byte, inc bool, w, r []byte) {
	for i, v := range w {
		c.regs[c.offset(reg, inc, i)] = v
	}
	for i := range r {
		r[i] = c.regs[c.offset(reg, inc, i)]
	}
}

func (c *chip) offset(reg byte, inc bool, i int) byte {
	if !inc {
		return reg & 0x3F
	}
	return (reg + byte(i)) & 0x3F
}

func (c *chip) reg(r byte) byte {
	c.Lock()
	defer c.Unlock()
	return c.regs[r]
}

func (c *chip) set(r byte, v ...byte) {
	c.Lock()
	defer c.Unlock()
	copy(c.regs[r:], v)
}

func (c *chip) snapshot() [0x40]byte {
	c.Lock()
	defer c.Unlock()
	return c.regs
}

func (c *chip) lastAddr() byte {
	c.Lock()
	defer c.Unlock()
	return c.addrs[len(c.addrs)-1]
}

// spiChip exposes chip as a hardware SPI port.
type spiChip struct {
	*chip
	mode spi.Mode
}

func (s *spiChip) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	s.mode = mode
	return s, nil
}

func (s *spiChip) LimitSpeed(f physic.Frequency) error {
	return nil
}

func (s *spiChip) Close() error {
	return nil
}

func (s *spiChip) Duplex() conn.Duplex {
	return conn.Full
}

func (s *spiChip) Tx(w, r []byte) error {
	if len(w) == 0 || len(r) != len(w) {
		return errors.New("chip: bad SPI transfer")
	}
	s.Lock()
	defer s.Unlock()
	addr := w[0]
	s.addrs = append(s.addrs, addr)
	reg, inc := addr&0x3F, addr&spiAutoIncrement != 0
	if addr&spiRead != 0 {
		s.access(reg, inc, nil, r[1:])
	} else {
		s.access(reg, inc, w[1:], nil)
	}
	return nil
}

func (s *spiChip) TxPackets(p []spi.Packet) error {
	return errors.New("chip: TxPackets not implemented")
}

// hookPin calls onOut after every level change.
type hookPin struct {
	*gpiotest.Pin
	onOut func(l gpio.Level)
}

func (h *hookPin) Out(l gpio.Level) error {
	if err := h.Pin.Out(l); err != nil {
		return err
	}
	if h.onOut != nil {
		h.onOut(l)
	}
	return nil
}

// softWire is a bit level SPI mode 3 slave in front of chip. It shifts MISO
// on the falling clock edge and samples MOSI on the rising one.
type softWire struct {
	c        *chip
	cs, sck  *hookPin
	mosi     *gpiotest.Pin
	miso     *gpiotest.Pin
	selected bool
	bits     int
	cur      byte
	buf      []byte
}

func newSoftWire(c *chip) *softWire {
	s := &softWire{
		c:    c,
		mosi: &gpiotest.Pin{N: "MOSI", Num: 10},
		miso: &gpiotest.Pin{N: "MISO", Num: 9},
	}
	s.cs = &hookPin{Pin: &gpiotest.Pin{N: "CS", Num: 8}, onOut: s.onCS}
	s.sck = &hookPin{Pin: &gpiotest.Pin{N: "CLK", Num: 11}, onOut: s.onSCK}
	return s
}

func (s *softWire) onCS(l gpio.Level) {
	if l == gpio.Low {
		s.selected, s.bits, s.cur, s.buf = true, 0, 0, nil
		return
	}
	if s.selected && len(s.buf) > 1 && s.buf[0]&spiRead == 0 {
		s.c.Lock()
		s.c.access(s.buf[0]&0x3F, s.buf[0]&spiAutoIncrement != 0, s.buf[1:], nil)
		s.c.Unlock()
	}
	s.selected = false
}

func (s *softWire) onSCK(l gpio.Level) {
	if !s.selected {
		return
	}
	if l == gpio.Low {
		n, bit := s.bits/8, uint(7-s.bits%8)
		level := gpio.Low
		if n > 0 && s.buf[0]&spiRead != 0 {
			s.c.Lock()
			v := s.c.regs[s.c.offset(s.buf[0]&0x3F, s.buf[0]&spiAutoIncrement != 0, n-1)]
			s.c.Unlock()
			level = gpio.Level(v&(1<<bit) != 0)
		}
		_ = s.miso.Out(level)
		return
	}
	s.cur <<= 1
	if s.mosi.Read() {
		s.cur |= 1
	}
	s.bits++
	if s.bits%8 == 0 {
		s.buf = append(s.buf, s.cur)
		if len(s.buf) == 1 {
			s.c.Lock()
			s.c.addrs = append(s.c.addrs, s.cur)
			s.c.Unlock()
		}
		s.cur = 0
	}
}
