// Command rankgo ranks directories of edge-list topics with weighted
// PageRank and publishes the results to a blob store.
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
