package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/bayesnet/internal/config"
	"github.com/gyaneshwarpardhi/bayesnet/internal/engine"
	"github.com/gyaneshwarpardhi/bayesnet/internal/query"
)

func runInfer(cmd *cobra.Command, args []string) error {
	net, err := loadNetwork()
	if err != nil {
		return err
	}

	var cfg config.ServiceConfig
	config.ApplyDefaults(&cfg)
	cfg.Engine.QueryWorkers = 1
	cfg.Engine.QueueDepth = 1
	cfg.Engine.SamplerWorkers = max(workersFlag, 1)
	if samplesFlag > cfg.Engine.MaxSamples {
		cfg.Engine.MaxSamples = samplesFlag
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if timeoutFlag > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeoutFlag)
		defer cancel()
	}

	eng := engine.New(ctx, net, cfg.Engine, nil)
	defer eng.Shutdown()

	q := &query.Query{
		Evidence:  evidenceFlags,
		Targets:   targetFlags,
		Algorithm: algorithmFlag,
		Samples:   samplesFlag,
	}
	if seedFlag >= 0 {
		seed := uint64(seedFlag)
		q.Seed = &seed
	}

	// Evaluate on this goroutine so a --timeout yields partial results instead of an error.
	res, err := eng.Evaluate(ctx, q)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}

	fmt.Printf("algorithm %s, %d samples, %d ms\n", res.Algorithm, res.Samples, res.DurationMs)
	for _, tr := range res.Results {
		fmt.Printf("\nP(%s | evidence)", tr.Target)
		if tr.Partial {
			fmt.Print("  [partial]")
		}
		fmt.Println()
		if tr.Empty {
			fmt.Println("  no information obtainable: no sample was consistent with the evidence")
			continue
		}
		info, err := eng.Describe(tr.Target)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, s := range info.States {
			fmt.Fprintf(tw, "  %s\t%.4f\n", s, tr.Distribution[s])
		}
		tw.Flush()
		fmt.Printf("  accepted %d, rejected %d\n", tr.Accepted, tr.Rejected)
	}
	return nil
}
