// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lis3x controls the ST LIS331 family of three-axis accelerometers
// (LIS331HH, H3LIS331) over I²C, hardware SPI or software SPI.
//
// All configuration lives in the chip registers. The driver never caches it:
// every getter reads the hardware and samples are always scaled with the
// range currently latched in CTRL_REG4.
//
// The chip variant provides the range to sensitivity table. Use LIS331HH or
// H3LIS331 in Opts.Variant, or supply a custom Scaler.
//
// # Datasheets
//
// https://www.st.com/resource/en/datasheet/lis331hh.pdf
//
// https://www.st.com/resource/en/datasheet/h3lis331dl.pdf
package lis3x
