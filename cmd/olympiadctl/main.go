package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/olympiad-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
