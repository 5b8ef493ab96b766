// Package main is the entry point for the birdsql application.
// It provides multi-agent text-to-SQL generation and BIRD benchmark
// evaluation through a command-line interface.
package main

import (
	"github.com/abdoukaba/Autogen-BIRD/cmd"
)

// main is the entry point for the birdsql application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
