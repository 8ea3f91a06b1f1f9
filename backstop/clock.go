// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package backstop

import (
	"sync/atomic"
	"time"
)

// Clock supplies the current time to the module. Time is an external input:
// the module never advances it itself, and implementations must be
// monotonically non-decreasing.
type Clock interface {
	// Now returns the current unix timestamp in seconds.
	Now() uint64
}

type systemClock struct{}

func (systemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// SystemClock reads the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// ManualClock is a settable clock for tests and solo runs.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock creates a manual clock starting at the given timestamp.
func NewManualClock(now uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(now)
	return c
}

func (c *ManualClock) Now() uint64 {
	return c.now.Load()
}

// Set moves the clock to the given timestamp. Moving backwards is a
// programming error and panics.
func (c *ManualClock) Set(now uint64) {
	if now < c.now.Load() {
		panic("clock moved backwards")
	}
	c.now.Store(now)
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d uint64) {
	c.now.Add(d)
}
