// Command graphmock serves and queries a mock-backed GraphQL API built from
// SDL files and YAML fixtures.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
