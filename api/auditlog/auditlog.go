// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package auditlog exposes filtered queries over the persisted event stream.
package auditlog

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/backstopfi/backstop/api/restutil"
	"github.com/backstopfi/backstop/eventdb"
)

type AuditLog struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, queryLimit uint64) *AuditLog {
	return &AuditLog{db, queryLimit}
}

func (a *AuditLog) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := restutil.ParseJSON(req.Body, &filter); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > a.limit {
		return restutil.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", a.limit))
	}
	if filter.Range != nil && filter.Range.To < filter.Range.From {
		return restutil.BadRequest(fmt.Errorf("range.to must be greater than or equal to range.from"))
	}
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Offset: 0, Limit: a.limit}
	}

	records, err := a.db.Filter(&filter)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*eventdb.Record{}
	}
	return restutil.WriteJSON(w, records)
}

func (a *AuditLog) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleFilter))
}
