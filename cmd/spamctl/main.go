// Command spamctl talks to the spam prediction API from the terminal.
package main

import (
	"fmt"
	"os"
)

// Version info (set during build)
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
