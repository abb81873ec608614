package main

import (
	"os"

	"github.com/propshield/climarisk/internal/interfaces/cli"
)

func main() {
	os.Exit(cli.Execute())
}
