// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"

	isatty "github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nuonetwork/stakevault/genesis"
	"github.com/nuonetwork/stakevault/historydb"
	"github.com/nuonetwork/stakevault/log"
	"github.com/nuonetwork/stakevault/lvldb"
	"github.com/nuonetwork/stakevault/metrics"
)

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".stakevault")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func initLogger(ctx *cli.Context) {
	level := log.FromVerbosity(ctx.Int(verbosityFlag.Name))
	useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	log.SetDefault(log.NewTerminalHandler(os.Stderr, level, useColor))
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	if path := ctx.String(genesisFlag.Name); path != "" {
		return genesis.Load(path)
	}
	return genesis.Devnet(), nil
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.New("unable to infer default data dir, use --data-dir to specify one")
	}
	instanceDir := filepath.Join(dataDir, gene.ID()[:8])
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func openMainDB(ctx *cli.Context, instanceDir string) (*lvldb.LevelDB, error) {
	if ctx.Bool(memFlag.Name) {
		return lvldb.NewMem()
	}
	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, nil
}

func openHistoryDB(ctx *cli.Context, instanceDir string) (*historydb.HistoryDB, error) {
	if ctx.Bool(memFlag.Name) {
		return historydb.NewMem()
	}
	path := filepath.Join(instanceDir, "history.db")
	db, err := historydb.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open history database [%v]", path)
	}
	return db, nil
}

func startAPIServer(ctx *cli.Context, handler http.HandlerFunc) (*http.Server, string, error) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler}
	go func() {
		srv.Serve(listener)
	}()
	return srv, "http://" + listener.Addr().String() + "/", nil
}

func startMetricsServer(ctx *cli.Context) (*http.Server, error) {
	if !ctx.Bool(enableMetricsFlag.Name) {
		return nil, nil
	}
	metrics.InitializePrometheusMetrics()

	addr := ctx.String(metricsAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen metrics addr [%v]", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Handler: mux}
	go func() {
		srv.Serve(listener)
	}()
	return srv, nil
}

func handleExitSignal() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-signalCh
		logger.Info("exit signal received", "signal", sig)
		close(done)
	}()
	return done
}

func printStartupMessage(gene *genesis.Genesis, instanceDir string, apiURL string) {
	fmt.Printf(`Starting %v
    Genesis     [ %v %v ]
    Data dir    [ %v ]
    API portal  [ %v ]
`,
		"StakeVault",
		gene.Name, gene.ID()[:8],
		instanceDir,
		apiURL,
	)
}
