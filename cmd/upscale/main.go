// Command upscale is a CLI front-end over the upscale library: decode an
// image, resample it at a target scale, and write the result back out.
// It exercises the same public API an embedding service would use, minus
// the session registry and HTTP transport that stays out of library
// scope.
package main

import (
	"log"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("upscale: %v", err)
		os.Exit(1)
	}
}
