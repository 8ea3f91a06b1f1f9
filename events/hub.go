// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/ethereum/go-ethereum/event"
)

// Hub fans out published events to all subscribers. Publishing never blocks
// longer than the slowest subscriber channel; size the channel accordingly.
type Hub struct {
	feed  event.Feed
	scope event.SubscriptionScope
}

// Publish delivers ev to all current subscribers.
func (h *Hub) Publish(ev *Event) {
	h.feed.Send(ev)
}

// Subscribe registers ch to receive published events.
func (h *Hub) Subscribe(ch chan *Event) event.Subscription {
	return h.scope.Track(h.feed.Subscribe(ch))
}

// Close terminates all subscriptions.
func (h *Hub) Close() {
	h.scope.Close()
}
