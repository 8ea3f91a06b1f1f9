// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishSubscribe(t *testing.T) {
	var hub Hub
	defer hub.Close()

	ch := make(chan *Event, 4)
	sub := hub.Subscribe(ch)
	defer sub.Unsubscribe()

	hub.Publish(&Event{Kind: KindDeposit, Pool: "reserve/0", Amount: big.NewInt(1000), Time: 7})

	select {
	case ev := <-ch:
		assert.Equal(t, KindDeposit, ev.Kind)
		assert.Equal(t, "reserve/0", ev.Pool)
		assert.Equal(t, big.NewInt(1000), ev.Amount)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestHubUnsubscribe(t *testing.T) {
	var hub Hub
	defer hub.Close()

	ch := make(chan *Event, 1)
	sub := hub.Subscribe(ch)
	sub.Unsubscribe()

	hub.Publish(&Event{Kind: KindSlashed})
	require.Empty(t, ch)
}
