package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sadopc/apiprobe/internal/mock"
	"github.com/sadopc/apiprobe/internal/telemetry"
)

func mockCmd() {
	fs := flag.NewFlagSet("mock", flag.ExitOnError)
	portFlag := fs.Int("port", 8080, "Port to listen on")
	latencyFlag := fs.Duration("latency", 0, "Artificial response latency (e.g., 200ms, 1s)")
	errorRateFlag := fs.Float64("error-rate", 0, "Random error rate (0.0-1.0)")
	corsOriginFlag := fs.String("cors-origin", "*", "Access-Control-Allow-Origin header value")
	keyFlag := fs.String("subscription-key", mock.DefaultSubscriptionKey, "Subscription key accepted by /gettoken")
	logFlag := fs.String("log-level", "info", "Request log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apiprobe mock [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Start an in-memory mock of the token, Audit, user and product endpoints.\n")
		fmt.Fprintf(os.Stderr, "The audit history store is seeded with sample records and can be\n")
		fmt.Fprintf(os.Stderr, "reset through POST /admin/reset (add ?reseed=true to restore the seed).\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  apiprobe mock\n")
		fmt.Fprintf(os.Stderr, "  apiprobe mock --port 3000 --latency 200ms\n")
		fmt.Fprintf(os.Stderr, "  apiprobe mock --error-rate 0.1\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if *errorRateFlag < 0 || *errorRateFlag > 1 {
		fatalf(2, "Error: error-rate must be between 0.0 and 1.0\n")
	}
	if *portFlag < 0 || *portFlag > 65535 {
		fatalf(2, "Error: port must be between 0 and 65535\n")
	}

	opts := []mock.Option{
		mock.WithPort(*portFlag),
		mock.WithSubscriptionKey(*keyFlag),
		mock.WithLogger(telemetry.NewLogger("text", *logFlag, os.Stderr)),
	}
	if *latencyFlag > 0 {
		opts = append(opts, mock.WithLatency(*latencyFlag))
	}
	if *errorRateFlag > 0 {
		opts = append(opts, mock.WithErrorRate(*errorRateFlag))
	}
	if *corsOriginFlag != "*" {
		opts = append(opts, mock.WithCORSOrigin(*corsOriginFlag))
	}

	srv := mock.New(opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Routes:\n")
	for _, rt := range srv.Routes() {
		fmt.Fprintf(os.Stderr, "  %s\n", rt)
	}
	if *latencyFlag > 0 {
		fmt.Fprintf(os.Stderr, "Artificial latency: %s\n", latencyFlag.String())
	}
	if *errorRateFlag > 0 {
		fmt.Fprintf(os.Stderr, "Error rate: %.0f%%\n", *errorRateFlag*100)
	}

	if err := srv.Start(ctx); err != nil {
		cancel()
		fatalf(1, "Error: %v\n", err)
	}
}
