package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/bchain/bchain/business/protocol"
	"github.com/spf13/cobra"
)

var createAccountCmd = &cobra.Command{
	Use:   "create_account <name> <balance>",
	Short: "Create an account with a starting balance.",
	Args:  cobra.ExactArgs(2),
	Run:   createAccountRun,
}

func init() {
	rootCmd.AddCommand(createAccountCmd)
}

func createAccountRun(cmd *cobra.Command, args []string) {
	balance, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		log.Fatalf("balance must be a non-negative whole number: %s", err)
	}

	reply, err := client().Send(protocol.NewCreateAccount(args[0], balance))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(reply)
}
