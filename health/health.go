// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/backstopfi/backstop/trigger"
)

// Module is the part of the treasury the probe inspects.
type Module interface {
	Initialized() bool
	State() trigger.State
}

type Status struct {
	Healthy     bool       `json:"healthy"`
	Initialized bool       `json:"initialized"`
	State       string     `json:"state"`
	LastEventAt *time.Time `json:"lastEventAt"`
}

type Health struct {
	lock      sync.RWMutex
	mod       Module
	lastEvent *time.Time
}

func New(mod Module) *Health {
	return &Health{mod: mod}
}

// NewEvent records that the event pipeline is alive.
func (h *Health) NewEvent() {
	h.lock.Lock()
	defer h.lock.Unlock()

	now := time.Now()
	h.lastEvent = &now
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	initialized := h.mod.Initialized()
	return &Status{
		Healthy:     initialized,
		Initialized: initialized,
		State:       h.mod.State().String(),
		LastEventAt: h.lastEvent,
	}, nil
}
