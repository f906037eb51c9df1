package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	networkFile string
	builtinName string
	logLevel    string
	jsonOutput  bool

	evidenceFlags map[string]string
	targetFlags   []string
	algorithmFlag string
	samplesFlag   int
	seedFlag      int64
	workersFlag   int
	timeoutFlag   time.Duration

	rootCmd = &cobra.Command{
		Use:   "bayesctl",
		Short: "Inspect and query discrete Bayesian networks offline",
		Long: `bayesctl builds a network (a builtin one or a YAML definition)
and answers P(target | evidence) queries with approximate sampling.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				level = slog.LevelWarn
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	// --- Introspection ---
	nodesCmd = &cobra.Command{
		Use:   "nodes",
		Short: "List node names in evaluation order",
		Args:  cobra.NoArgs,
		RunE:  runNodes, // Defined in cmd_nodes.go
	}
	describeCmd = &cobra.Command{
		Use:   "describe [node]",
		Short: "Show a node's states, parents, children and CPT",
		Args:  cobra.ExactArgs(1),
		RunE:  runDescribe, // Defined in cmd_nodes.go
	}
	cptCmd = &cobra.Command{
		Use:   "cpt [node]",
		Short: "Print a node's conditional probability table",
		Args:  cobra.ExactArgs(1),
		RunE:  runCPT, // Defined in cmd_nodes.go
	}
	childrenCmd = &cobra.Command{
		Use:   "children [node]",
		Short: "List a node's direct successors",
		Args:  cobra.ExactArgs(1),
		RunE:  runChildren, // Defined in cmd_nodes.go
	}
	validateCmd = &cobra.Command{
		Use:   "validate [network.yaml]",
		Short: "Check a YAML network definition without querying it",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate, // Defined in cmd_nodes.go
	}

	// --- Inference ---
	inferCmd = &cobra.Command{
		Use:   "infer",
		Short: "Estimate P(target | evidence)",
		Example: `  bayesctl infer -t EstadoMicrobiano -t EstadoOperativo \
    -e T_sensor=baja -e Gas_sensor=bajo --algorithm lw --samples 50000`,
		Args: cobra.NoArgs,
		RunE: runInfer, // Defined in cmd_infer.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&networkFile, "network", "n", "", "YAML network definition (default: builtin network)")
	rootCmd.PersistentFlags().StringVar(&builtinName, "builtin", "biodigester", "Builtin network to use when --network is not set")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")

	inferCmd.Flags().StringToStringVarP(&evidenceFlags, "evidence", "e", nil, "Observed value as node=value (repeatable)")
	inferCmd.Flags().StringSliceVarP(&targetFlags, "target", "t", nil, "Target node (repeatable)")
	inferCmd.Flags().StringVarP(&algorithmFlag, "algorithm", "a", "likelihood_weighting", "rejection | likelihood_weighting (or rs | lw)")
	inferCmd.Flags().IntVarP(&samplesFlag, "samples", "s", 10000, "Number of samples")
	inferCmd.Flags().Int64Var(&seedFlag, "seed", -1, "Seed for reproducible sampling (negative: random)")
	inferCmd.Flags().IntVarP(&workersFlag, "workers", "w", 1, "Sampling goroutines")
	inferCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Stop sampling after this long and report partial results")
	_ = inferCmd.MarkFlagRequired("target")

	rootCmd.AddCommand(nodesCmd, describeCmd, cptCmd, childrenCmd, validateCmd, inferCmd)
}
