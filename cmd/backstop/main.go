// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/backstopfi/backstop/api"
	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/custody"
	"github.com/backstopfi/backstop/eventdb"
	"github.com/backstopfi/backstop/events"
	"github.com/backstopfi/backstop/genesis"
	"github.com/backstopfi/backstop/health"
	"github.com/backstopfi/backstop/log"
	"github.com/backstopfi/backstop/metrics"
	"github.com/backstopfi/backstop/trigger"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Backstop",
		Usage:     "Trigger-gated treasury service",
		Copyright: "2026 The Backstop developers",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			memDBFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiQueryLimitFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	initLogger(ctx.Int(verbosityFlag.Name), ctx.Bool(jsonLogsFlag.Name))
	defer func() { logger.Info("exited") }()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	genesisPath := ctx.String(genesisFlag.Name)
	if genesisPath == "" {
		fatal(fmt.Sprintf("genesis file required, use -%s to specify one", genesisFlag.Name))
	}
	cfg, err := genesis.LoadFile(genesisPath)
	if err != nil {
		fatal("load genesis:", err)
	}

	moduleAddr := backstop.BytesToAddress([]byte("backstop-module"))
	vault := custody.NewMemVault(moduleAddr)
	// risk condition attestation is deployment specific; a standalone
	// service reports no fired conditions
	oracle := trigger.OracleFunc(func(backstop.Bytes32) bool { return false })

	mod, err := cfg.Build(backstop.SystemClock(), vault, oracle)
	if err != nil {
		fatal("build module:", err)
	}

	var db *eventdb.EventDB
	if ctx.Bool(memDBFlag.Name) {
		db, err = eventdb.NewMem()
	} else {
		instanceDir := makeInstanceDir(ctx)
		db, err = eventdb.New(filepath.Join(instanceDir, "events.db"))
	}
	if err != nil {
		fatal("open event database:", err)
	}
	defer func() { logger.Info("closing event database..."); db.Close() }()

	recorder := eventdb.NewRecorder(db, mod.Hub())
	defer func() { logger.Info("stopping event recorder..."); recorder.Stop() }()

	probe := health.New(mod)

	handler, apiCloser := api.New(mod, db, probe, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		QueryLimit:      ctx.Uint64(apiQueryLimitFlag.Name),
	})
	defer apiCloser()

	apiURL, srvCloser, err := api.StartServer(ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		fatal(err)
	}
	defer func() { logger.Info("stopping API server..."); srvCloser() }()

	if ctx.Bool(enableMetricsFlag.Name) {
		url, closer, err := api.StartServer(ctx.String(metricsAddrFlag.Name), metrics.HTTPHandler())
		if err != nil {
			fatal(err)
		}
		logger.Info("metrics server started", "url", url)
		defer func() { logger.Info("stopping metrics server..."); closer() }()
	}

	go checkClockOffset()

	logger.Info("treasury service started",
		"version", fullVersion(),
		"apiURL", apiURL,
		"state", mod.State(),
		"owner", mod.Owner(),
	)

	exitCtx := handleExitSignal()
	g, gctx := errgroup.WithContext(exitCtx)

	// keep the health probe fed with event liveness
	g.Go(func() error {
		ch := make(chan *events.Event, 64)
		sub := mod.Hub().Subscribe(ch)
		defer sub.Unsubscribe()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ch:
				probe.NewEvent()
			case err := <-sub.Err():
				return err
			}
		}
	})

	return g.Wait()
}
