// Command lltree runs the order book engine.
//
//	lltree serve  [--config lltree.yaml]
//	lltree config [--config lltree.yaml]
//
// Every configuration key can also be set through LLTREE_<SECTION>_<KEY>,
// for example LLTREE_GRPC_ADDR=:6000.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "lltree",
		Short:         "Single-writer limit order book over intrusive LLRB price ladders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	root.AddCommand(newServeCmd(&cfgFile), newConfigCmd(&cfgFile))
	return root
}
