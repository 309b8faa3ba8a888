package main

import (
	"os"

	"github.com/xielang86/mindora-user/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
