// Command admin runs maintenance tasks against the training portal database.
package main

import (
	"os"

	_ "github.com/lib/pq"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
