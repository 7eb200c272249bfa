// Package main provides the normsearch operator CLI: it runs ad-hoc queries
// against the configured reference corpus and checks that the corpus loads.
package main

import (
	"fmt"
	"os"

	apperrors "github.com/normsearch/normsearch/pkg/errors"
)

// Exit codes.
const (
	exitFailure  = 1
	exitDataLoad = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if apperrors.IsDataLoad(err) {
		return exitDataLoad
	}
	return exitFailure
}
