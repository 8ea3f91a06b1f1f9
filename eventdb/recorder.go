// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/backstopfi/backstop/co"
	"github.com/backstopfi/backstop/events"
	"github.com/backstopfi/backstop/log"
)

var logger = log.WithContext("pkg", "eventdb")

// Recorder drains an event hub into the db in the background.
type Recorder struct {
	db   *EventDB
	goes co.Goes
	done chan struct{}
}

// NewRecorder starts recording events published through the hub. Call Stop
// to detach and wait for the drain goroutine.
func NewRecorder(db *EventDB, hub *events.Hub) *Recorder {
	r := &Recorder{
		db:   db,
		done: make(chan struct{}),
	}
	ch := make(chan *events.Event, 256)
	sub := hub.Subscribe(ch)
	r.goes.Go(func() {
		defer sub.Unsubscribe()
		for {
			select {
			case ev := <-ch:
				if err := r.db.Insert(ev); err != nil {
					logger.Warn("failed to record event", "kind", ev.Kind, "err", err)
				}
			case <-r.done:
				// drain what is already buffered
				for {
					select {
					case ev := <-ch:
						if err := r.db.Insert(ev); err != nil {
							logger.Warn("failed to record event", "kind", ev.Kind, "err", err)
						}
					default:
						return
					}
				}
			case err := <-sub.Err():
				if err != nil {
					logger.Warn("event subscription closed", "err", err)
				}
				return
			}
		}
	})
	return r
}

// Stop detaches the recorder and waits for pending inserts.
func (r *Recorder) Stop() {
	close(r.done)
	r.goes.Wait()
}
