package main

import (
	"os"

	"github.com/coolyuoo/memstress/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
