// Command catalogctl administers a persistence store: listing, inspecting,
// sweeping and removing persisted replicas.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
