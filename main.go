package main

import (
	"os"

	"github.com/SMCodesP/imgtransform/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
