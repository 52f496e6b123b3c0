// Package main is the entry point for the indexpanel CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/indexpanel/cmd/indexpanel/cmd"
	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, perrors.FormatForCLI(err))
		os.Exit(1)
	}
}
