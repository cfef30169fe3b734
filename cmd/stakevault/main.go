// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/nuonetwork/stakevault/api"
	"github.com/nuonetwork/stakevault/engine"
	"github.com/nuonetwork/stakevault/historydb"
	"github.com/nuonetwork/stakevault/log"
	"github.com/nuonetwork/stakevault/stake"
	"github.com/nuonetwork/stakevault/token"
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
		Name:      "StakeVault",
		Usage:     "Time-locked staking vault service of the NUO network",
		Copyright: "2025 The StakeVault developers",
		Flags: []cli.Flag{
			dataDirFlag,
			memFlag,
			genesisFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiHistoryLimitFlag,
			verbosityFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	instanceDir, err := makeInstanceDir(ctx, gene)
	if err != nil {
		return err
	}

	mainDB, err := openMainDB(ctx, instanceDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	historyDB, err := openHistoryDB(ctx, instanceDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing history database..."); historyDB.Close() }()

	tok := token.New(mainDB)
	registry, err := gene.Apply(mainDB, tok)
	if err != nil {
		return err
	}

	eng := engine.New(registry, stake.NewLedger(mainDB), tok, mainDB, engine.Options{
		Custody: gene.Custody,
		Admin:   gene.Admin,
	})

	stopRecorder := startHistoryRecorder(eng, historyDB)
	defer stopRecorder()

	metricsSrv, err := startMetricsServer(ctx)
	if err != nil {
		return err
	}
	if metricsSrv != nil {
		defer func() { logger.Info("stopping metrics server..."); metricsSrv.Shutdown(context.Background()) }()
	}

	apiHandler, apiCloser := api.New(eng, tok, historyDB, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		HistoryLimit:   ctx.Uint64(apiHistoryLimitFlag.Name),
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
	})
	defer apiCloser()

	apiSrv, apiURL, err := startAPIServer(ctx, apiHandler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); apiSrv.Shutdown(context.Background()) }()

	printStartupMessage(gene, instanceDir, apiURL)

	<-handleExitSignal()
	return nil
}

// startHistoryRecorder copies engine events into the history db until the
// returned stop function is called.
func startHistoryRecorder(eng *engine.Engine, db *historydb.HistoryDB) func() {
	events, unsubscribe := eng.SubscribeEvents(1024)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if err := db.Write(&ev); err != nil {
				logger.Warn("failed to record event", "err", err)
			}
		}
	}()
	return func() {
		unsubscribe()
		<-done
	}
}
