package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/tkjaer/hops/internal/probe"
	"github.com/tkjaer/hops/internal/version"
)

type Args struct {
	Destination string
	Interface   string // empty means pick one from the routing table

	// Probing
	StartTTL    uint
	MaxTTL      uint
	MaxProbes   uint
	Parallel    uint
	PayloadSize uint
	Algorithm   string
	Timeout     time.Duration // overall run limit, 0 means none

	// Output
	Quiet       bool   // no per-probe progress
	Detailed    bool   // hop estimate after every response
	Statistics  bool   // statistics block after the conclusion
	NoResolve   bool   // no reverse lookups of responders
	Json        bool   // output json to stdout
	JsonFile    string // output json to file while showing text
	MetricsFile string // Prometheus textfile, empty means none

	// Path hashing
	HashAlgorithm string // hash algorithm: crc32, sha256

	// Logging
	Log      string // log file or directory for hops.log, empty means stderr only
	LogLevel string // log level: debug, info, warn, error

	algorithm probe.Algorithm
}

func ParseArgs() (Args, error) {
	var args Args
	var showVersion bool

	// Set custom usage message
	flag.Usage = func() {
		println("hops - ICMP hop distance discovery")
		println()
		println("Finds how many IP hops away a host is by sending ICMP echo probes")
		println("with varying TTLs and narrowing the distance from the responses.")
		println()
		println("Usage:")
		println("  hops [OPTIONS] DESTINATION")
		println()
		println("Examples:")
		println("  hops <destination>                     # Sequential search from TTL 1")
		println("  hops -a reversesequential -m 30 <dst>  # Count down from TTL 30")
		println("  hops -P 5 -y <destination>             # 5 probes in flight, with statistics")
		println("  hops -J <destination>                  # JSON report to stdout")
		println()
		println("Options:")
		flag.PrintDefaults()
		println()
		println("Documentation: https://github.com/tkjaer/hops")
		println("Report issues: https://github.com/tkjaer/hops/issues")
	}

	flag.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	flag.StringVarP(&args.Interface, "interface", "i", "", "Interface to send probes from (default: from the routing table)")
	flag.UintVar(&args.StartTTL, "start-ttl", probe.DefaultStartTTL, "First TTL to probe")
	flag.UintVarP(&args.MaxTTL, "max-ttl", "m", probe.DefaultMaxTTL, "Maximum TTL to probe")
	flag.UintVarP(&args.MaxProbes, "max-probes", "c", probe.DefaultMaxProbes, "Maximum number of probes to send")
	flag.UintVarP(&args.Parallel, "parallel", "P", probe.DefaultParallel, "Number of probes in flight at once")
	flag.UintVarP(&args.PayloadSize, "size", "s", 0, "ICMP payload length in bytes")
	flag.StringVarP(&args.Algorithm, "algorithm", "a", probe.Sequential.String(), "TTL selection: random, sequential, reversesequential or binarysearch")
	flag.DurationVarP(&args.Timeout, "timeout", "t", 0, "Stop probing after this long (0 = no limit)")
	flag.BoolVarP(&args.Quiet, "quiet", "q", false, "Do not show per-probe progress")
	flag.BoolVarP(&args.Detailed, "progress-detailed", "p", false, "Show the hop estimate after every response")
	flag.BoolVarP(&args.Statistics, "statistics", "y", false, "Show statistics after the conclusion")
	flag.BoolVarP(&args.NoResolve, "no-resolve", "n", false, "Do not resolve responder addresses to hostnames")
	flag.StringVarP(&args.JsonFile, "json-file", "j", "", "Write JSON report to file (keeps text output)")
	flag.BoolVarP(&args.Json, "json", "J", false, "Write JSON report to stdout (disables text output)")
	flag.StringVar(&args.MetricsFile, "metrics-file", "", "Write Prometheus metrics to a textfile-collector file")
	flag.StringVar(&args.HashAlgorithm, "hash-algorithm", "crc32", "Path hash algorithm: crc32 or sha256")
	flag.StringVarP(&args.Log, "log", "l", "", "Copy diagnostics to this file, or to hops.log in this directory")
	flag.StringVar(&args.LogLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.Parse()

	// Handle version flag
	if showVersion {
		fmt.Println(version.FullVersion())
		os.Exit(0)
	}

	args.Destination = flag.Arg(0)
	if args.Destination == "" {
		return args, errors.New("destination is required")
	}

	switch {
	case flag.NArg() > 1:
		return args, errors.New("only one destination can be given")
	case args.Json && args.JsonFile != "":
		return args, errors.New("cannot use both --json and --json-file")
	case args.MetricsFile != "" && args.MetricsFile == args.JsonFile:
		return args, errors.New("--metrics-file and --json-file must differ")
	case args.HashAlgorithm != "crc32" && args.HashAlgorithm != "sha256":
		return args, errors.New("hash algorithm must be either 'crc32' or 'sha256'")
	case args.MaxTTL < 1 || args.MaxTTL > 255:
		return args, errors.New("maximum TTL must be between 1 and 255")
	case args.StartTTL < 1 || args.StartTTL > args.MaxTTL:
		return args, errors.New("start TTL must be between 1 and the maximum TTL")
	case args.MaxProbes < 1:
		return args, errors.New("maximum probes must be at least 1")
	case args.Parallel < 1 || args.Parallel >= probe.MaxParallel:
		return args, fmt.Errorf("parallel probes must be between 1 and %d", probe.MaxParallel-1)
	case args.PayloadSize > probe.MaxPayloadLength:
		return args, fmt.Errorf("payload size must be at most %d", probe.MaxPayloadLength)
	case args.Timeout < 0:
		return args, errors.New("timeout cannot be negative")
	}

	alg, err := probe.ParseAlgorithm(args.Algorithm)
	if err != nil {
		return args, err
	}
	args.algorithm = alg

	return args, nil
}

// ProbeConfig turns the parsed arguments into an engine configuration for
// the resolved addresses
func (a Args) ProbeConfig(dst, src netip.Addr, ifName string) probe.Config {
	return probe.Config{
		Destination:   a.Destination,
		DestinationIP: dst,
		SourceIP:      src,
		Interface:     ifName,
		StartTTL:      uint8(a.StartTTL),
		MaxTTL:        uint8(a.MaxTTL),
		MaxProbes:     int(a.MaxProbes),
		Parallel:      int(a.Parallel),
		PayloadLength: int(a.PayloadSize),
		Algorithm:     a.algorithm,
		IdleWait:      probe.DefaultIdleWait,
		HashAlgorithm: a.HashAlgorithm,
	}
}
