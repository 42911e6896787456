package main

import "github.com/bchain/bchain/app/cli/cmd"

func main() {
	cmd.Execute()
}
