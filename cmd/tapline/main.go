package main

import (
	"os"

	cmd "github.com/lowrydr/tapline/internal"
	"github.com/lowrydr/tapline/internal/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.LogError(err.Error())
		os.Exit(1)
	}
}
