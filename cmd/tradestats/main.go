// Command tradestats computes trading performance metrics from trade journals.
package main

import (
	"os"

	"github.com/atlas-desktop/tradestats/cmd/tradestats/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
