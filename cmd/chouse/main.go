// Package main is the entry point for the chouse operator CLI.
package main

import (
	"os"

	"github.com/daun-gatal/chouse-ui-sub004/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
