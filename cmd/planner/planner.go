package main

import (
	"os"

	"tableflip.dev/planner/pkg/commands"
	"tableflip.dev/planner/pkg/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		log.Error("error during command execution", err)
		os.Exit(1)
	}
}
