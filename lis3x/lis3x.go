// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3x

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var (
	// SpiFrequency is the clock used on a hardware SPI port. The chips accept
	// up to 10MHz.
	SpiFrequency = physic.MegaHertz * 5
	// SoftSpiFrequency caps the bit-banged clock.
	SoftSpiFrequency = physic.MegaHertz
	SpiMode          = spi.Mode3 // Clock idles high, data sampled on the rising edge.
	SpiBits          = 8

	// SettleTime is how long SetRange blocks so the next sample is taken with
	// the new full scale.
	SettleTime = 15 * time.Millisecond
)

var (
	ErrInvalidRange    = errors.New("lis3x: invalid range")
	ErrInvalidLine     = errors.New("lis3x: invalid interrupt line")
	ErrInvalidDataRate = errors.New("lis3x: invalid data rate")
	ErrWrongDevice     = errors.New("lis3x: unexpected device ID")
)

// Configuration fields.
var (
	fieldAxes     = bitField{reg: regCtrl1, width: 3, shift: 0}
	fieldLPF      = bitField{reg: regCtrl1, width: 2, shift: 3}
	fieldDataRate = bitField{reg: regCtrl1, width: 5, shift: 3} // PM2..PM0 and DR1..DR0
	fieldHPCutoff = bitField{reg: regCtrl2, width: 2, shift: 0}
	fieldHPEnable = bitField{reg: regCtrl2, width: 1, shift: 4} // FDS
	fieldHPMode   = bitField{reg: regCtrl2, width: 2, shift: 5}
	fieldBoot     = bitField{reg: regCtrl2, width: 1, shift: 7}
	fieldInt1Cfg  = bitField{reg: regCtrl3, width: 2, shift: 0}
	fieldLatch1   = bitField{reg: regCtrl3, width: 1, shift: 2}
	fieldInt2Cfg  = bitField{reg: regCtrl3, width: 2, shift: 3}
	fieldLatch2   = bitField{reg: regCtrl3, width: 1, shift: 5}
	fieldPinMode  = bitField{reg: regCtrl3, width: 2, shift: 6} // IHL and PP_OD
	fieldRange    = bitField{reg: regCtrl4, width: 2, shift: 4}
	fieldBDU      = bitField{reg: regCtrl4, width: 1, shift: 7}
)

// DefaultOpts powers up a LIS331HH at 100Hz, ±6g, after checking its ID.
var DefaultOpts = Opts{
	Variant:         LIS331HH,
	TurnOnOnStart:   true,
	DataRate:        DataRate100Hz,
	Range:           Range6G,
	BlockDataUpdate: true,
	VerifyID:        true,
}

// Opts holds the configuration options.
type Opts struct {
	Variant  *Variant // Chip model. Defaults to LIS331HH.
	Scaler   Scaler   // Overrides the sensitivity table of Variant when set.
	SensorID int32    // Reported in Event and Sensor.

	// TurnOnOnStart enables the three axes and writes DataRate, Range and
	// BlockDataUpdate on creation.
	TurnOnOnStart   bool
	DataRate        DataRate
	Range           Range
	BlockDataUpdate bool

	// VerifyID makes the constructor fail with ErrWrongDevice when WHO_AM_I
	// doesn't read ChipID.
	VerifyID bool

	// Clock is used for the range settle delay, timestamps and continuous
	// sensing. Defaults to the real clock.
	Clock clockwork.Clock
}

// InterruptLine is one of the two physical interrupt pins.
type InterruptLine uint8

const (
	Int1 InterruptLine = 1
	Int2 InterruptLine = 2
)

// Polarity is the active level of both interrupt pins.
type Polarity uint8

const (
	ActiveHigh Polarity = 0
	ActiveLow  Polarity = 1
)

// DriveMode is the output stage of both interrupt pins.
type DriveMode uint8

const (
	PushPull  DriveMode = 0
	OpenDrain DriveMode = 1
)

// HPFCutoff is the high-pass filter cutoff, relative to the output data rate.
type HPFCutoff uint8

const (
	HPFCutoffODR50  HPFCutoff = 0 // ODR/50
	HPFCutoffODR100 HPFCutoff = 1 // ODR/100
	HPFCutoffODR200 HPFCutoff = 2 // ODR/200
	HPFCutoffODR400 HPFCutoff = 3 // ODR/400
)

// LPFCutoff is the low-pass filter cutoff used in the low power modes.
type LPFCutoff uint8

const (
	LPFCutoff37Hz  LPFCutoff = 0
	LPFCutoff74Hz  LPFCutoff = 1
	LPFCutoff292Hz LPFCutoff = 2
	LPFCutoff780Hz LPFCutoff = 3
)

// InterruptEvents are the axis events of an interrupt generator, laid out as
// in INTx_CFG.
type InterruptEvents byte

const (
	EventXLow InterruptEvents = 1 << iota
	EventXHigh
	EventYLow
	EventYHigh
	EventZLow
	EventZHigh
	// Event6D enables 6 direction detection.
	Event6D
	// EventAnd requires all enabled events instead of any of them.
	EventAnd
)

// InterruptConfig configures one of the two interrupt generators.
type InterruptConfig struct {
	Events    InterruptEvents
	Threshold byte // 7 bits, in full scale/128 steps.
	Duration  byte // 7 bits, in 1/ODR steps.
	Latch     bool // Keep the interrupt active until InterruptSource is read.
}

// InterruptSource is the content of INTx_SRC.
type InterruptSource byte

// Active reports whether one or more interrupts were generated.
func (s InterruptSource) Active() bool {
	return s&0x40 != 0
}

// Events returns the axis events that fired.
func (s InterruptSource) Events() InterruptEvents {
	return InterruptEvents(s & 0x3F)
}

// Dev is a handle to an initialized LIS331 family device.
type Dev struct {
	mu       sync.Mutex
	t        *transport
	variant  *Variant
	scaler   Scaler
	sensorID int32
	clock    clockwork.Clock
	raw      Raw
	g        Vector
	stop     chan struct{}
}

// NewI2C returns a device on the I²C bus at addr, usually DefaultAddress or
// AlternateAddress.
//
// If opts is nil DefaultOpts is used.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	return newDev(newI2CTransport(b, addr), opts)
}

// NewSPI returns a device on a hardware SPI port.
//
// cs is an optional chip select GPIO. When nil, the port's own chip select is
// used.
func NewSPI(p spi.Port, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	t, err := newSPITransport(p, cs)
	if err != nil {
		return nil, err
	}
	return newDev(t, opts)
}

// NewSoftSPI returns a device on a software SPI bus bit-banged over four
// GPIO pins.
func NewSoftSPI(cs, mosi gpio.PinOut, miso gpio.PinIn, sck gpio.PinOut, opts *Opts) (*Dev, error) {
	t, err := newSoftSPITransport(cs, mosi, sck, miso)
	if err != nil {
		return nil, err
	}
	return newDev(t, opts)
}

func newDev(t *transport, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	d := &Dev{
		t:        t,
		variant:  opts.Variant,
		scaler:   opts.Scaler,
		sensorID: opts.SensorID,
		clock:    opts.Clock,
	}
	if d.variant == nil {
		d.variant = LIS331HH
	}
	if d.scaler == nil {
		d.scaler = d.variant
	}
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	if opts.VerifyID {
		id, err := t.readByte(regWhoAmI)
		if err != nil {
			return nil, fmt.Errorf("lis3x: can't read device ID: %w", err)
		}
		if id != ChipID {
			return nil, fmt.Errorf("%w: got %#02x, want %#02x", ErrWrongDevice, id, ChipID)
		}
	}
	if opts.TurnOnOnStart {
		if err := d.start(opts); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dev) start(opts *Opts) error {
	if err := d.t.writeBits(fieldAxes, 0x7); err != nil {
		return err
	}
	if err := d.setDataRate(opts.DataRate); err != nil {
		return err
	}
	var bdu byte
	if opts.BlockDataUpdate {
		bdu = 1
	}
	if err := d.t.writeBits(fieldBDU, bdu); err != nil {
		return err
	}
	return d.setRange(opts.Range)
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%s}", d.variant.Name, d.t)
}

// EnableDebug traces every register access through f. A nil f disables
// tracing.
func (d *Dev) EnableDebug(f DebugF) {
	if f == nil {
		f = noop
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t.debug = f
}

// DeviceID returns the WHO_AM_I register. Both supported chips return ChipID.
func (d *Dev) DeviceID() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.readByte(regWhoAmI)
}

// Range returns the full scale currently set in the device.
func (d *Dev) Range() (Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.t.readBits(fieldRange)
	return Range(r), err
}

// SetRange sets the full scale. It blocks for SettleTime so that the next
// sample is taken with the new sensitivity.
func (d *Dev) SetRange(r Range) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setRange(r)
}

func (d *Dev) setRange(r Range) error {
	if _, err := d.scaler.Sensitivity(r); err != nil {
		return err
	}
	if err := d.t.writeBits(fieldRange, byte(r)); err != nil {
		return err
	}
	d.clock.Sleep(SettleTime)
	return nil
}

// DataRate returns the power mode and output data rate.
func (d *Dev) DataRate() (DataRate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.t.readBits(fieldDataRate)
	return DataRate(r), err
}

// SetDataRate sets the power mode and output data rate in a single write.
func (d *Dev) SetDataRate(r DataRate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setDataRate(r)
}

func (d *Dev) setDataRate(r DataRate) error {
	if byte(r) > fieldDataRate.mask()>>fieldDataRate.shift {
		return fmt.Errorf("%w %#x", ErrInvalidDataRate, byte(r))
	}
	return d.t.writeBits(fieldDataRate, byte(r))
}

// EnableAxes enables or disables the measurement of each axis.
func (d *Dev) EnableAxes(x, y, z bool) error {
	var v byte
	if x {
		v |= 1
	}
	if y {
		v |= 2
	}
	if z {
		v |= 4
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.writeBits(fieldAxes, v)
}

// SetLPFCutoff selects the low-pass filter cutoff. It only takes effect in
// the low power data rates, where the DR bits aren't used for the output rate.
func (d *Dev) SetLPFCutoff(c LPFCutoff) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.writeBits(fieldLPF, byte(c))
}

// EnableHighPassFilter routes the output registers through the high-pass
// filter. With useReference the filter subtracts the REFERENCE register, see
// SetReference.
func (d *Dev) EnableHighPassFilter(enabled bool, cutoff HPFCutoff, useReference bool) error {
	var mode, en byte
	if useReference {
		mode = 0x1
	}
	if enabled {
		en = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.t.writeBits(fieldHPMode, mode); err != nil {
		return err
	}
	if err := d.t.writeBits(fieldHPCutoff, byte(cutoff)); err != nil {
		return err
	}
	return d.t.writeBits(fieldHPEnable, en)
}

// ResetHighPassFilter zeroes the high-pass filter content.
func (d *Dev) ResetHighPassFilter() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.t.readByte(regHPFilterReset)
	return err
}

// SetReference sets the high-pass filter reference value.
func (d *Dev) SetReference(v byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.write(regReference, v)
}

// SetBlockDataUpdate keeps the output registers from changing between the
// reads of the low and high bytes.
func (d *Dev) SetBlockDataUpdate(enabled bool) error {
	var v byte
	if enabled {
		v = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.writeBits(fieldBDU, v)
}

// Reboot reloads the trimming parameters from the internal memory. The bit
// clears itself once done.
func (d *Dev) Reboot() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.writeBits(fieldBoot, 1)
}

// ConfigIntDataReady routes the data ready signal to line and sets the pin
// polarity and drive mode. The other line's routing is cleared, only one line
// signals data ready at a time.
func (d *Dev) ConfigIntDataReady(line InterruptLine, p Polarity, m DriveMode) error {
	var on, off bitField
	switch line {
	case Int1:
		on, off = fieldInt1Cfg, fieldInt2Cfg
	case Int2:
		on, off = fieldInt2Cfg, fieldInt1Cfg
	default:
		return fmt.Errorf("%w %d", ErrInvalidLine, line)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.t.writeBits(fieldPinMode, byte(p&1)<<1|byte(m&1)); err != nil {
		return err
	}
	if err := d.t.writeBits(on, intCfgDataReady); err != nil {
		return err
	}
	return d.t.writeBits(off, 0)
}

// ConfigureInterrupt programs the interrupt generator of line.
func (d *Dev) ConfigureInterrupt(line InterruptLine, c InterruptConfig) error {
	if c.Threshold > 0x7F || c.Duration > 0x7F {
		return fmt.Errorf("lis3x: threshold %d and duration %d must fit in 7 bits", c.Threshold, c.Duration)
	}
	var cfg, ths, dur byte
	var latch bitField
	switch line {
	case Int1:
		cfg, ths, dur, latch = regInt1Cfg, regInt1Ths, regInt1Duration, fieldLatch1
	case Int2:
		cfg, ths, dur, latch = regInt2Cfg, regInt2Ths, regInt2Duration, fieldLatch2
	default:
		return fmt.Errorf("%w %d", ErrInvalidLine, line)
	}
	var l byte
	if c.Latch {
		l = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.t.write(ths, c.Threshold); err != nil {
		return err
	}
	if err := d.t.write(dur, c.Duration); err != nil {
		return err
	}
	if err := d.t.writeBits(latch, l); err != nil {
		return err
	}
	return d.t.write(cfg, byte(c.Events))
}

// InterruptSource reads INTx_SRC of line. Reading it clears a latched
// interrupt.
func (d *Dev) InterruptSource(line InterruptLine) (InterruptSource, error) {
	var reg byte
	switch line {
	case Int1:
		reg = regInt1Src
	case Int2:
		reg = regInt2Src
	default:
		return 0, fmt.Errorf("%w %d", ErrInvalidLine, line)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.t.readByte(reg)
	return InterruptSource(v), err
}

// DataReady reports whether a new sample is available on all three axes.
func (d *Dev) DataReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.t.readByte(regStatus)
	return s&statusZYXDA != 0, err
}

// Read fetches the three axes in one burst and scales them with the range
// currently set in the device. The result is available from Raw and
// Acceleration. On error the previous sample is kept.
func (d *Dev) Read() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read()
}

func (d *Dev) read() error {
	b, err := d.t.read(regOutXL, 6)
	if err != nil {
		return fmt.Errorf("lis3x: can't read samples: %w", err)
	}
	raw := decodeRaw(b)
	g, err := d.scale(raw)
	if err != nil {
		return err
	}
	d.raw = raw
	d.g = g
	return nil
}

// scale converts raw counts to g with the sensitivity of the range latched
// in the device.
func (d *Dev) scale(raw Raw) (Vector, error) {
	r, err := d.t.readBits(fieldRange)
	if err != nil {
		return Vector{}, fmt.Errorf("lis3x: can't read range: %w", err)
	}
	k, err := d.scaler.Sensitivity(Range(r))
	if err != nil {
		return Vector{}, err
	}
	return Vector{X: float64(raw.X) * k, Y: float64(raw.Y) * k, Z: float64(raw.Z) * k}, nil
}

func decodeRaw(b []byte) Raw {
	return Raw{
		X: int16(binary.LittleEndian.Uint16(b[0:])),
		Y: int16(binary.LittleEndian.Uint16(b[2:])),
		Z: int16(binary.LittleEndian.Uint16(b[4:])),
	}
}

// Raw returns the counts of the last successful Read.
func (d *Dev) Raw() Raw {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Acceleration returns the last successful Read in g.
func (d *Dev) Acceleration() Vector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.g
}

// Halt stops SenseContinuous and powers the device down. Implements
// conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	return d.t.writeBits(fieldDataRate, byte(DataRatePowerDown))
}

// Raw is a sample in counts.
type Raw struct {
	X int16
	Y int16
	Z int16
}

func (r Raw) String() string {
	return fmt.Sprintf("X:%d Y:%d Z:%d", r.X, r.Y, r.Z)
}

// Vector is a three axes acceleration.
type Vector struct {
	X float64
	Y float64
	Z float64
}

func (v Vector) String() string {
	return fmt.Sprintf("X:%.4f Y:%.4f Z:%.4f", v.X, v.Y, v.Z)
}

var _ conn.Resource = &Dev{}
