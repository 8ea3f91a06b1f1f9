// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/backstopfi/backstop/api/auditlog"
	"github.com/backstopfi/backstop/api/pools"
	"github.com/backstopfi/backstop/api/restutil"
	"github.com/backstopfi/backstop/api/status"
	"github.com/backstopfi/backstop/api/subscriptions"
	"github.com/backstopfi/backstop/api/withdrawals"
	"github.com/backstopfi/backstop/eventdb"
	"github.com/backstopfi/backstop/health"
	"github.com/backstopfi/backstop/log"
	"github.com/backstopfi/backstop/metrics"
	"github.com/backstopfi/backstop/safety"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
	QueryLimit      uint64
}

// New returns the api router and a close function that shuts down hijacked
// websocket connections.
func New(
	mod *safety.Module,
	db *eventdb.EventDB,
	probe *health.Health,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	pools.New(mod).
		Mount(router, "/pools")
	withdrawals.New(mod).
		Mount(router, "/withdrawals")
	status.New(mod).
		Mount(router, "/state")
	auditlog.New(db, opts.QueryLimit).
		Mount(router, "/events")
	subs := subscriptions.New(mod.Hub(), origins)
	subs.Mount(router, "/subscriptions")

	router.Path("/health").
		Methods(http.MethodGet).
		HandlerFunc(restutil.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			s, err := probe.Status()
			if err != nil {
				return err
			}
			if !s.Healthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			return restutil.WriteJSON(w, s)
		}))

	if handler := metrics.HTTPHandler(); handler != nil {
		router.Path("/metrics").Handler(handler)
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsHandler)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP, subs.Close
}
