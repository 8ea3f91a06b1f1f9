// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams the live event feed over websockets.
package subscriptions

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/backstopfi/backstop/api/restutil"
	"github.com/backstopfi/backstop/co"
	"github.com/backstopfi/backstop/events"
	"github.com/backstopfi/backstop/log"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	eventQueueLen = 256
	pingPeriod    = 10 * time.Second
	writeTimeout  = 5 * time.Second
)

type Subscriptions struct {
	hub      *events.Hub
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
	closeOne sync.Once
}

func New(hub *events.Hub, allowedOrigins []string) *Subscriptions {
	checkOrigin := func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
	return &Subscriptions{
		hub:      hub,
		upgrader: &websocket.Upgrader{CheckOrigin: checkOrigin},
		done:     make(chan struct{}),
	}
}

// kindSet parses the optional kind query params into a filter; empty means
// every kind.
func kindSet(req *http.Request) map[events.Kind]bool {
	kinds := req.URL.Query()["kind"]
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[events.Kind]bool, len(kinds))
	for _, k := range kinds {
		set[events.Kind(k)] = true
	}
	return set
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	wanted := kindSet(req)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already responded
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	ch := make(chan *events.Event, eventQueueLen)
	sub := s.hub.Subscribe(ch)
	defer sub.Unsubscribe()

	var goes co.Goes
	closed := make(chan struct{})
	// drain client frames to detect the peer going away
	goes.Go(func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer goes.Wait()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeTimeout))
			return nil
		case <-closed:
			return nil
		case err := <-sub.Err():
			return err
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return nil
			}
		case ev := <-ch:
			if wanted != nil && !wanted[ev.Kind] {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug("event subscriber dropped", "err", err)
				return nil
			}
		}
	}
}

// Close signals every open subscription to shut down and waits for them.
func (s *Subscriptions) Close() {
	s.closeOne.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("GET /subscriptions/events").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvents))
}
