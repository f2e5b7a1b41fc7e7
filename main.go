// Command prefetchsweep runs gem5 prefetcher sweeps and aggregates their
// statistics.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/prefetchsweep/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
