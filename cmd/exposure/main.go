// Command exposure computes climate-exposure covariates for DHS
// child-mortality tables: extreme-precipitation indices, standardized
// rainfall deviations, and wet-day counts.
//
// Usage:
//
//	exposure extreme --config exposure.yaml
//	exposure rsd --input-dir data/pf_result --output-dir data/results
//	exposure wetdays
//	exposure all --workers 16
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
