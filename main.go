package main

import (
	"os"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
