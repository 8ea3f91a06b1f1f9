// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pools exposes read-only pool snapshots and per-account positions.
package pools

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/api/restutil"
	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/ledger"
	"github.com/backstopfi/backstop/safety"
)

type Pools struct {
	mod *safety.Module
}

func New(mod *safety.Module) *Pools {
	return &Pools{mod}
}

// Position is one account's share balances in a pool.
type Position struct {
	Pool         string           `json:"pool"`
	Owner        backstop.Address `json:"owner"`
	Shares       *big.Int         `json:"shares"`
	StakedShares *big.Int         `json:"stakedShares"`
}

func poolID(req *http.Request) (ledger.PoolID, error) {
	vars := mux.Vars(req)
	kind, err := ledger.ParseKind(vars["kind"])
	if err != nil {
		return ledger.PoolID{}, restutil.BadRequest(errors.WithMessage(err, "kind"))
	}
	index, err := strconv.ParseUint(vars["index"], 10, 32)
	if err != nil {
		return ledger.PoolID{}, restutil.BadRequest(errors.WithMessage(err, "index"))
	}
	return ledger.PoolID{Kind: kind, Index: uint32(index)}, nil
}

func (p *Pools) handleList(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, p.mod.PoolViews())
}

func (p *Pools) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := poolID(req)
	if err != nil {
		return err
	}
	view, err := p.mod.PoolView(id)
	if err != nil {
		return restutil.NotFound(err)
	}
	return restutil.WriteJSON(w, view)
}

func (p *Pools) handlePosition(w http.ResponseWriter, req *http.Request) error {
	id, err := poolID(req)
	if err != nil {
		return err
	}
	if _, err := p.mod.PoolView(id); err != nil {
		return restutil.NotFound(err)
	}
	owner, err := backstop.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	shares, staked := p.mod.Position(id, *owner)
	return restutil.WriteJSON(w, &Position{
		Pool:         id.String(),
		Owner:        *owner,
		Shares:       shares,
		StakedShares: staked,
	})
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pools").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleList))
	sub.Path("/{kind}/{index}").
		Methods(http.MethodGet).
		Name("GET /pools/{kind}/{index}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGet))
	sub.Path("/{kind}/{index}/positions/{address}").
		Methods(http.MethodGet).
		Name("GET /pools/{kind}/{index}/positions/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handlePosition))
}
