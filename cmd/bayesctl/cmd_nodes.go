package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/bayesnet/internal/bayes"
	"github.com/gyaneshwarpardhi/bayesnet/internal/config"
	"github.com/gyaneshwarpardhi/bayesnet/internal/engine"
	"github.com/gyaneshwarpardhi/bayesnet/internal/networks"
)

// loadNetwork builds the network selected by --network / --builtin.
func loadNetwork() (*bayes.Network, error) {
	if networkFile == "" {
		return networks.Build(config.NetworkDef{Builtin: builtinName}, networks.Builtin())
	}
	def, err := config.LoadNetworkFile(networkFile)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateNetwork(def); err != nil {
		return nil, err
	}
	return networks.Build(*def, networks.Builtin())
}

func runNodes(cmd *cobra.Command, args []string) error {
	net, err := loadNetwork()
	if err != nil {
		return err
	}
	names := net.NodeNames()
	if jsonOutput {
		return printJSON(names)
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	net, err := loadNetwork()
	if err != nil {
		return err
	}
	info, err := engine.Describe(net, args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(info)
	}
	fmt.Printf("%s (id %d, %s)\n", info.Name, info.ID, info.Kind)
	fmt.Printf("  states:   %s\n", strings.Join(info.States, ", "))
	fmt.Printf("  parents:  %s\n", orNone(info.Parents))
	fmt.Printf("  children: %s\n", orNone(info.Children))
	fmt.Println()
	printCPT(info)
	return nil
}

func runCPT(cmd *cobra.Command, args []string) error {
	net, err := loadNetwork()
	if err != nil {
		return err
	}
	info, err := engine.Describe(net, args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(info.CPT)
	}
	printCPT(info)
	return nil
}

func runChildren(cmd *cobra.Command, args []string) error {
	net, err := loadNetwork()
	if err != nil {
		return err
	}
	info, err := engine.Describe(net, args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(info.Children)
	}
	for _, c := range info.Children {
		fmt.Println(c)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	def, err := config.LoadNetworkFile(args[0])
	if err != nil {
		return err
	}
	if err := config.ValidateNetwork(def); err != nil {
		return err
	}
	net, err := networks.Build(*def, networks.Builtin())
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d nodes)\n", args[0], net.Len())
	return nil
}

// printCPT writes one row per parent combination with columns in domain order.
func printCPT(info *engine.NodeInfo) {
	keys := make([]string, 0, len(info.CPT))
	for k := range info.CPT {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "given\t%s\n", strings.Join(info.States, "\t"))
	for _, k := range keys {
		row := info.CPT[k]
		cells := make([]string, len(info.States))
		for i, s := range info.States {
			cells[i] = fmt.Sprintf("%.4f", row[s])
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orNone(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
