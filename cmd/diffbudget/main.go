package main

import (
	"os"

	"github.com/dshills/diffbudget/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
