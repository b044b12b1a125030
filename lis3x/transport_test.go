// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3x

import (
	"errors"
	"testing"
)

func TestBitFieldMask(t *testing.T) {
	for _, tc := range []struct {
		f    bitField
		want byte
	}{
		{fieldAxes, 0x07},
		{fieldLPF, 0x18},
		{fieldDataRate, 0xF8},
		{fieldHPCutoff, 0x03},
		{fieldHPEnable, 0x10},
		{fieldHPMode, 0x60},
		{fieldBoot, 0x80},
		{fieldInt1Cfg, 0x03},
		{fieldLatch1, 0x04},
		{fieldInt2Cfg, 0x18},
		{fieldLatch2, 0x20},
		{fieldPinMode, 0xC0},
		{fieldRange, 0x30},
		{fieldBDU, 0x80},
		{bitField{width: 8}, 0xFF},
	} {
		if got := tc.f.mask(); got != tc.want {
			t.Errorf("%+v: mask %#02x, want %#02x", tc.f, got, tc.want)
		}
	}
}

func TestWriteBitsIsolation(t *testing.T) {
	for width := uint8(1); width <= 8; width++ {
		for shift := uint8(0); shift+width <= 8; shift++ {
			f := bitField{reg: regCtrl5, width: width, shift: shift}
			for _, initial := range []byte{0x00, 0xFF, 0xA5} {
				c := newChip()
				c.set(regCtrl5, initial)
				tr := newI2CTransport(c, DefaultAddress)
				v := byte(0x5A) & (f.mask() >> shift)
				if err := tr.writeBits(f, v); err != nil {
					t.Fatal(err)
				}
				got := c.reg(regCtrl5)
				if got&^f.mask() != initial&^f.mask() {
					t.Errorf("%+v from %#02x: bits outside the field changed, got %#02x", f, initial, got)
				}
				r, err := tr.readBits(f)
				if err != nil {
					t.Fatal(err)
				}
				if r != v {
					t.Errorf("%+v from %#02x: read %#02x, want %#02x", f, initial, r, v)
				}
			}
		}
	}
}

func TestBusKindString(t *testing.T) {
	for k, want := range map[busKind]string{
		busNone:    "none",
		busI2C:     "I2C",
		busSPI:     "SPI",
		busSoftSPI: "SoftSPI",
	} {
		if got := k.String(); got != want {
			t.Errorf("%d: got %q, want %q", k, got, want)
		}
	}
}

func TestNoTransport(t *testing.T) {
	tr := &transport{debug: noop}
	if _, err := tr.read(regWhoAmI, 1); !errors.Is(err, errNoTransport) {
		t.Errorf("read: got %v", err)
	}
	if err := tr.write(regCtrl1, 0); !errors.Is(err, errNoTransport) {
		t.Errorf("write: got %v", err)
	}
	if err := tr.writeBits(fieldRange, 1); !errors.Is(err, errNoTransport) {
		t.Errorf("writeBits: got %v", err)
	}
	if tr.String() != "none" {
		t.Errorf("String() = %q", tr.String())
	}
}

func TestMultiByteWrite(t *testing.T) {
	c := newChip()
	tr := newI2CTransport(c, DefaultAddress)
	if err := tr.write(regInt1Ths, 0x11, 0x22); err != nil {
		t.Fatal(err)
	}
	if got := c.lastAddr(); got != regInt1Ths|i2cAutoIncrement {
		t.Errorf("address %#02x", got)
	}
	if c.reg(regInt1Ths) != 0x11 || c.reg(regInt1Duration) != 0x22 {
		regs := c.snapshot()
		t.Errorf("registers % x", regs[regInt1Ths:regInt1Duration+1])
	}

	s := newChip()
	st, err := newSPITransport(&spiChip{chip: s}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.write(regInt2Ths, 0x33, 0x44); err != nil {
		t.Fatal(err)
	}
	if got := s.lastAddr(); got != regInt2Ths|spiAutoIncrement {
		t.Errorf("address %#02x", got)
	}
	if s.reg(regInt2Ths) != 0x33 || s.reg(regInt2Duration) != 0x44 {
		regs := s.snapshot()
		t.Errorf("registers % x", regs[regInt2Ths:regInt2Duration+1])
	}
}
