// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3x

import (
	"fmt"
	"sort"
	"strings"
)

// Range is the full scale selection, as stored in the FS bits of CTRL_REG4.
//
// The same bit pattern means a different full scale on each variant, so use
// the constants matching the chip.
type Range byte

const (
	// LIS331HH full scales.
	Range6G  Range = 0x0
	Range12G Range = 0x1
	Range24G Range = 0x3

	// H3LIS331 full scales.
	Range100G Range = 0x0
	Range200G Range = 0x1
	Range400G Range = 0x3
)

// DataRate is the power mode and output data rate, the 5 upper bits of
// CTRL_REG1. In the low power modes the two low bits select the low-pass
// filter cutoff instead, see SetLPFCutoff.
type DataRate byte

const (
	DataRatePowerDown DataRate = 0x00
	DataRate50Hz      DataRate = 0x04
	DataRate100Hz     DataRate = 0x05
	DataRate400Hz     DataRate = 0x06
	DataRate1000Hz    DataRate = 0x07
	// Low power modes.
	DataRateLowPower0_5Hz DataRate = 0x08
	DataRateLowPower1Hz   DataRate = 0x0C
	DataRateLowPower2Hz   DataRate = 0x10
	DataRateLowPower5Hz   DataRate = 0x14
	DataRateLowPower10Hz  DataRate = 0x18
)

func (d DataRate) String() string {
	switch d {
	case DataRatePowerDown:
		return "PowerDown"
	case DataRate50Hz:
		return "50Hz"
	case DataRate100Hz:
		return "100Hz"
	case DataRate400Hz:
		return "400Hz"
	case DataRate1000Hz:
		return "1000Hz"
	case DataRateLowPower0_5Hz:
		return "LowPower0.5Hz"
	case DataRateLowPower1Hz:
		return "LowPower1Hz"
	case DataRateLowPower2Hz:
		return "LowPower2Hz"
	case DataRateLowPower5Hz:
		return "LowPower5Hz"
	case DataRateLowPower10Hz:
		return "LowPower10Hz"
	default:
		return fmt.Sprintf("DataRate(%#x)", byte(d))
	}
}

// Scaler supplies the sensitivity of a chip for a given full scale.
//
// The sensitivity is in g per LSB of the 16 bits output word. The chips
// left-justify their 12 bits result, so the datasheet mg/digit value is
// divided by 16.
type Scaler interface {
	Sensitivity(r Range) (float64, error)
}

// Variant describes one chip of the family.
type Variant struct {
	Name string
	// Scales maps each valid full scale to its sensitivity in g/LSB.
	Scales map[Range]float64
	// FullScale maps each valid full scale to its ±g limit, for display.
	FullScale map[Range]int
}

// LIS331HH is the ±6/12/24g chip.
var LIS331HH = &Variant{
	Name: "LIS331HH",
	Scales: map[Range]float64{
		Range6G:  0.003 / 16,
		Range12G: 0.006 / 16,
		Range24G: 0.012 / 16,
	},
	FullScale: map[Range]int{Range6G: 6, Range12G: 12, Range24G: 24},
}

// H3LIS331 is the ±100/200/400g high-g chip.
var H3LIS331 = &Variant{
	Name: "H3LIS331",
	Scales: map[Range]float64{
		Range100G: 0.049 / 16,
		Range200G: 0.098 / 16,
		Range400G: 0.195 / 16,
	},
	FullScale: map[Range]int{Range100G: 100, Range200G: 200, Range400G: 400},
}

// Sensitivity implements Scaler.
func (v *Variant) Sensitivity(r Range) (float64, error) {
	k, ok := v.Scales[r]
	if !ok {
		return 0, fmt.Errorf("%w %#x for %s", ErrInvalidRange, byte(r), v.Name)
	}
	return k, nil
}

// Valid reports whether r is a full scale supported by the chip.
func (v *Variant) Valid(r Range) bool {
	_, ok := v.Scales[r]
	return ok
}

// RangeString returns a human readable full scale, e.g. "±24g".
func (v *Variant) RangeString(r Range) string {
	if g, ok := v.FullScale[r]; ok {
		return fmt.Sprintf("±%dg", g)
	}
	return fmt.Sprintf("Range(%#x)", byte(r))
}

func (v *Variant) String() string {
	ranges := make([]Range, 0, len(v.FullScale))
	for r := range v.FullScale {
		ranges = append(ranges, r)
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i] < ranges[j] })
	s := make([]string, len(ranges))
	for i, r := range ranges {
		s[i] = v.RangeString(r)
	}
	return fmt.Sprintf("%s{%s}", v.Name, strings.Join(s, ","))
}

var _ Scaler = &Variant{}
