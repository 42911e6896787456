package cmd

import (
	"fmt"
	"log"

	"github.com/bchain/bchain/business/protocol"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <name>",
	Short: "Print the current balance of an account.",
	Args:  cobra.ExactArgs(1),
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	reply, err := client().Send(protocol.NewBalance(args[0]))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(reply)
}
