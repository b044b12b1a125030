// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3x

const (
	// DefaultAddress is the I²C address with SDO/SA0 tied low.
	DefaultAddress uint16 = 0x18
	// AlternateAddress is the I²C address with SDO/SA0 tied high.
	AlternateAddress uint16 = 0x19

	// ChipID is the WHO_AM_I value of both the LIS331HH and the H3LIS331.
	ChipID byte = 0x32
)

const (
	regWhoAmI        = 0x0F // Device identification
	regCtrl1         = 0x20 // Power mode, data rate, axis enable
	regCtrl2         = 0x21 // Memory reboot, high-pass filter
	regCtrl3         = 0x22 // Interrupt polarity, pin mode, latching, routing
	regCtrl4         = 0x23 // BDU, endianness, full scale, self test, SPI mode
	regCtrl5         = 0x24 // Sleep to wake
	regHPFilterReset = 0x25 // Dummy register, reading it zeroes the HP filter
	regReference     = 0x26 // High-pass filter reference
	regStatus        = 0x27 // Data overrun and data available flags
	regOutXL         = 0x28 // X low byte, start of the 6 output registers
	regOutXH         = 0x29
	regOutYL         = 0x2A
	regOutYH         = 0x2B
	regOutZL         = 0x2C
	regOutZH         = 0x2D
	regInt1Cfg       = 0x30 // INT1 axis/direction enable
	regInt1Src       = 0x31 // INT1 source, clears a latched interrupt
	regInt1Ths       = 0x32 // INT1 threshold
	regInt1Duration  = 0x33 // INT1 minimum duration
	regInt2Cfg       = 0x34
	regInt2Src       = 0x35
	regInt2Ths       = 0x36
	regInt2Duration  = 0x37
)

const (
	// Address flags. On I²C bit 7 requests auto-increment. On SPI bit 7 marks a
	// read and bit 6 requests auto-increment.
	i2cAutoIncrement = 0x80
	spiRead          = 0x80
	spiAutoIncrement = 0x40

	statusZYXDA = 1 << 3

	// CTRL_REG3 routing function of an interrupt pin.
	intCfgDataReady = 0x2
)
