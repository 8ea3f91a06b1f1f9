// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package status exposes the module state and configuration.
package status

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/backstopfi/backstop/api/restutil"
	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/safety"
)

type Status struct {
	mod *safety.Module
}

func New(mod *safety.Module) *Status {
	return &Status{mod}
}

type delays struct {
	Withdraw          uint64 `json:"withdraw"`
	Unstake           uint64 `json:"unstake"`
	ConfigUpdate      uint64 `json:"configUpdate"`
	ConfigUpdateGrace uint64 `json:"configUpdateGrace"`
}

type configWindow struct {
	NotBefore uint64 `json:"notBefore"`
	ExpiresAt uint64 `json:"expiresAt"`
}

// State is the module state document.
type State struct {
	State         string            `json:"state"`
	Initialized   bool              `json:"initialized"`
	Owner         backstop.Address  `json:"owner"`
	FeeCollector  backstop.Address  `json:"feeCollector"`
	Delays        delays            `json:"delays"`
	FiredTrigger  *backstop.Bytes32 `json:"firedTrigger,omitempty"`
	PendingConfig *configWindow     `json:"pendingConfig,omitempty"`
}

func (s *Status) handleGet(w http.ResponseWriter, _ *http.Request) error {
	d := s.mod.CurrentDelays()
	state := &State{
		State:        s.mod.State().String(),
		Initialized:  s.mod.Initialized(),
		Owner:        s.mod.Owner(),
		FeeCollector: s.mod.FeeCollector(),
		Delays: delays{
			Withdraw:          d.Withdraw,
			Unstake:           d.Unstake,
			ConfigUpdate:      d.ConfigUpdate,
			ConfigUpdateGrace: d.ConfigUpdateGrace,
		},
	}
	if id, ok := s.mod.FiredTrigger(); ok {
		state.FiredTrigger = &id
	}
	if notBefore, expiresAt, ok := s.mod.PendingConfigWindow(); ok {
		state.PendingConfig = &configWindow{NotBefore: notBefore, ExpiresAt: expiresAt}
	}
	return restutil.WriteJSON(w, state)
}

func (s *Status) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /state").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGet))
}
