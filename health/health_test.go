// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backstopfi/backstop/trigger"
)

type fakeModule struct {
	initialized bool
	state       trigger.State
}

func (m *fakeModule) Initialized() bool    { return m.initialized }
func (m *fakeModule) State() trigger.State { return m.state }

func TestStatusTracksInitialization(t *testing.T) {
	mod := &fakeModule{}
	h := New(mod)

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Equal(t, "active", status.State)
	assert.Nil(t, status.LastEventAt)

	mod.initialized = true
	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestNewEvent(t *testing.T) {
	h := New(&fakeModule{initialized: true})

	h.NewEvent()

	status, err := h.Status()
	require.NoError(t, err)
	require.NotNil(t, status.LastEventAt)
	assert.WithinDuration(t, time.Now(), *status.LastEventAt, time.Second)
}
