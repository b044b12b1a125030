// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package softspi implements a SPI port by bit-banging four GPIO pins.
//
// It is meant for boards where the device is wired to arbitrary GPIOs instead
// of a hardware SPI controller. Only 8 bits words are supported. Transfers are
// full duplex, most significant bit first unless spi.LSBFirst is requested.
//
// The resulting clock is bounded by how fast the host can toggle its pins, so
// it is typically in the hundreds of kHz at best.
package softspi
