// Command trader runs AI-driven trading cycles on Upbit.
package main

import (
	"fmt"
	"os"

	"upbit-trader/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
