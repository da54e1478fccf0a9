package main

import (
	"os"

	"github.com/AnyUserName/pngseal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
