package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/bchain/bchain/business/protocol"
	"github.com/spf13/cobra"
)

var transferCmd = &cobra.Command{
	Use:   "transfer <sender> <receiver> <amount>",
	Short: "Queue a transfer of funds for the next block.",
	Args:  cobra.ExactArgs(3),
	Run:   transferRun,
}

func init() {
	rootCmd.AddCommand(transferCmd)
}

func transferRun(cmd *cobra.Command, args []string) {
	amount, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		log.Fatalf("amount must be a non-negative whole number: %s", err)
	}

	reply, err := client().Send(protocol.NewTransfer(args[0], args[1], amount))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(reply)
}
