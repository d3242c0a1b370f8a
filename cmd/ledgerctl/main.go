package main

import (
	"fmt"
	"os"
	"time"

	"ledger/internal/ctl"
)

func main() {
	if err := ctl.NewRootCmd(time.Now).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}
