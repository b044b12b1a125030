// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package accel is a container for accelerometer drivers and the bus helpers
// they need.
//
// The lis3x package drives the ST LIS331HH and H3LIS331 three-axis
// accelerometers over I²C, hardware SPI or software SPI (see package softspi).
package accel
