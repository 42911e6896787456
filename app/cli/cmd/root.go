// Package cmd contains the client commands for driving a running node.
package cmd

import (
	"os"

	"github.com/bchain/bchain/business/protocol"
	"github.com/spf13/cobra"
)

var nodeAddr string

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeAddr, "node", "n", "127.0.0.1:9996", "Address of the node's command listener.")
}

var rootCmd = &cobra.Command{
	Use:   "b",
	Short: "Client for the B ledger node",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// client constructs the protocol client against the configured node.
func client() protocol.Client {
	return protocol.Client{Addr: nodeAddr}
}
