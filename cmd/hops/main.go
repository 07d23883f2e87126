package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/tkjaer/hops/internal/config"
	"github.com/tkjaer/hops/internal/output"
	"github.com/tkjaer/hops/internal/probe"
	"github.com/tkjaer/hops/pkg/iface"
	"github.com/tkjaer/hops/pkg/ptr"
	"github.com/tkjaer/hops/pkg/rawsock"
)

func main() {
	args, err := config.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logFile, err := config.SetupLogging(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	err = run(args)
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args config.Args) error {
	// Ctrl+C or the overall timeout ends probing; the report is still printed
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dst, err := probe.ResolveDestination(ctx, args.Destination)
	if err != nil {
		return err
	}

	var local iface.Interface
	if args.Interface != "" {
		local, err = iface.Lookup(args.Interface)
	} else {
		local, err = iface.ForDestination(dst)
	}
	if err != nil {
		return err
	}

	slog.Debug("Starting hop discovery",
		"destination", args.Destination,
		"address", dst,
		"interface", local.Name,
		"source", local.Addr,
		"algorithm", args.Algorithm,
	)

	conn, err := rawsock.Open(local.Name, local.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	om := &output.OutputManager{}
	if !args.Json {
		om.Register(output.NewTextOutput(os.Stdout, output.TextOptions{
			Quiet:      args.Quiet,
			Detailed:   args.Detailed,
			Statistics: args.Statistics,
			Styled:     term.IsTerminal(int(os.Stdout.Fd())),
		}))
	}
	if args.Json || args.JsonFile != "" {
		jo, err := output.NewJSONOutput(args.JsonFile)
		if err != nil {
			return err
		}
		om.Register(jo)
	}
	if args.MetricsFile != "" {
		om.Register(output.NewMetricsOutput(args.MetricsFile))
	}
	defer om.Close()

	var opts []probe.Option
	if !args.NoResolve {
		opts = append(opts, probe.WithPtrManager(ptr.NewPtrManager()))
	}

	pm, err := probe.NewProbeManager(args.ProbeConfig(dst, local.Addr, local.Name), conn, om, opts...)
	if err != nil {
		return err
	}

	runCtx := ctx
	if args.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, args.Timeout)
		defer cancel()
	}

	report, err := pm.Run(runCtx)
	if err != nil {
		return err
	}
	slog.Debug("Hop discovery completed", "state", report.State, "hops", report.Conclusion.Hops)

	return om.Complete(report)
}
