package main

import (
	"os"

	"github.com/soocke/productivity-recorder/cmd"
)

func main() {
	if err := cmd.Execute(NewLogger); err != nil {
		os.Exit(1)
	}
}
