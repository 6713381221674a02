// Command cfpl is the CFPL interpreter's command line entry point.
package main

import (
	"os"

	"github.com/thomasrohde/cfpl/internal/cli"
)

func main() {
	os.Exit(cli.New().Run(os.Args[1:]))
}
