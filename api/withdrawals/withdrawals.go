// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package withdrawals exposes queued withdrawal records.
package withdrawals

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/api/restutil"
	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/safety"
)

type Withdrawals struct {
	mod *safety.Module
}

func New(mod *safety.Module) *Withdrawals {
	return &Withdrawals{mod}
}

// Record is the JSON form of a queued withdrawal. Payout is the amount the
// record would release right now, after any slash rescaling.
type Record struct {
	ID            backstop.Bytes32 `json:"id"`
	Pool          string           `json:"pool"`
	Owner         backstop.Address `json:"owner"`
	Receiver      backstop.Address `json:"receiver"`
	Shares        *big.Int         `json:"shares"`
	Amount        *big.Int         `json:"amount"`
	ScaleSnapshot *big.Int         `json:"scaleSnapshot"`
	RequestedAt   uint64           `json:"requestedAt"`
	UnlockAt      uint64           `json:"unlockAt"`
	Payout        *big.Int         `json:"payout"`
}

func (ws *Withdrawals) record(w *safety.Withdrawal) (*Record, error) {
	view, err := ws.mod.PoolView(w.Pool)
	if err != nil {
		return nil, err
	}
	payout := new(big.Int).Mul(w.Amount, view.ScaleFactor)
	payout.Quo(payout, w.ScaleSnapshot)
	return &Record{
		ID:            w.ID,
		Pool:          w.Pool.String(),
		Owner:         w.Owner,
		Receiver:      w.Receiver,
		Shares:        w.Shares,
		Amount:        w.Amount,
		ScaleSnapshot: w.ScaleSnapshot,
		RequestedAt:   w.RequestedAt,
		UnlockAt:      w.UnlockAt,
		Payout:        payout,
	}, nil
}

func (ws *Withdrawals) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := backstop.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	wd, err := ws.mod.Withdrawal(id)
	if err != nil {
		return restutil.NotFound(err)
	}
	rec, err := ws.record(wd)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, rec)
}

func (ws *Withdrawals) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /withdrawals/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(ws.handleGet))
}
