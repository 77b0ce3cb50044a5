// Command gridline filters, sorts, pages and groups tabular JSON records.
package main

import (
	"os"

	"github.com/mesh-intelligence/gridline/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
