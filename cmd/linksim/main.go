// SPDX-License-Identifier: GPL-3.0-or-later

// Command linksim simulates two protocol stacks exchanging
// traffic over a possibly noisy medium.
//
// Usage:
//
//	linksim [flags] <medium> <datalink>
//
// Media: Perfect, BurstyNoise. Data links: Simple (alias Dumb)
// and Parity (alias Hamming). Names are case insensitive.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/lmittmann/tint"
	"github.com/rbmk-project/linksim/errclass"
	"github.com/rbmk-project/linksim/sim"
)

// cliArgs contains the command line arguments. Nil
// pointers keep the value from the config file.
type cliArgs struct {
	Names      []string `arg:"positional" placeholder:"MEDIUM DATALINK" help:"medium and data-link implementation names"`
	ConfigFile *string  `arg:"-c,--config" help:"path of an .ini or .yaml config file (command line values take precedence)"`
	Traffic    *string  `arg:"-t,--traffic" help:"traffic profile: text or dns"`
	DNSName    *string  `arg:"--dns-name" help:"name queried by the dns traffic profile"`
	Capture    *string  `arg:"--capture" help:"write a CSV trace of every transmitted bit to this path"`
	Seed       *uint64  `arg:"-s,--seed" help:"seed of the BurstyNoise random stream (0 selects the default stream)"`
	LogLevel   string   `arg:"-l,--log-level" default:"warn" help:"log level: debug, info, warn or error"`
	NoColor    bool     `arg:"--no-color" help:"disable colored logs"`
}

// Description implements the go-arg description interface.
func (cliArgs) Description() string {
	return "linksim simulates two protocol stacks sharing a medium.\n"
}

// overrides returns the [*sim.Overrides] set on the command line.
func (ca *cliArgs) overrides() *sim.Overrides {
	ov := &sim.Overrides{}
	ov.Medium.Name = &ca.Names[0]
	ov.Medium.Capture = ca.Capture
	ov.Medium.Seed = ca.Seed
	ov.Datalink.Scheme = &ca.Names[1]
	ov.Network.Traffic = ca.Traffic
	ov.Network.DNSName = ca.DNSName
	return ov
}

// newLogger creates the tint logger writing to w.
func newLogger(w io.Writer, level string, noColor bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	})), nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run runs the command and returns the exit code.
func run(argv []string, stdout, stderr io.Writer) int {
	var args cliArgs
	parser, err := arg.NewParser(arg.Config{Program: "linksim"}, &args)
	if err != nil {
		fmt.Fprintf(stderr, "linksim: %s\n", err.Error())
		return 1
	}
	switch err := parser.Parse(argv); {
	case errors.Is(err, arg.ErrHelp):
		parser.WriteHelp(stdout)
		return 0
	case err != nil:
		parser.WriteUsage(stderr)
		fmt.Fprintf(stderr, "linksim: %s\n", err.Error())
		return 1
	}
	if len(args.Names) != 2 {
		parser.WriteUsage(stderr)
		fmt.Fprintf(stderr, "linksim: expected 2 arguments, got %d\n", len(args.Names))
		return 1
	}

	logger, err := newLogger(stderr, args.LogLevel, args.NoColor)
	if err != nil {
		fmt.Fprintf(stderr, "linksim: invalid log level: %s\n", err.Error())
		return 1
	}

	config := sim.DefaultConfig()
	if args.ConfigFile != nil {
		ov, err := sim.LoadOverrides(*args.ConfigFile)
		if err != nil {
			fmt.Fprintf(stderr, "linksim: %s\n", err.Error())
			return 1
		}
		ov.Merge(config)
	}
	args.overrides().Merge(config)

	s, err := sim.New(config, logger, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "linksim: %s\n", err.Error())
		return 1
	}
	err = errors.Join(s.Run(), s.Close())
	if _, werr := s.Report().WriteTo(stdout); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		logger.Error("linksimFailed", slog.Any("err", err), slog.String("errClass", errclass.New(err)))
		fmt.Fprintf(stderr, "linksim: %s\n", err.Error())
		return 1
	}
	return 0
}
