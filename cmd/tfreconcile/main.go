package main

import (
	"os"

	"github.com/picklr-io/tfreconcile/internal/cli"
)

func main() {
	// cli.Execute has already logged the error
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
