package main

import (
	"os"

	"github.com/NicolasHaas/itemtrack/pkg/client"
	"github.com/NicolasHaas/itemtrack/pkg/logging"
	"github.com/NicolasHaas/itemtrack/ui"
)

func main() {
	// Level comes from settings.yaml, overridable with ITEMTRACK_LOG_LEVEL
	// (debug, info, warn, error).
	level := client.LoadSettings().LogLevel
	if v := os.Getenv("ITEMTRACK_LOG_LEVEL"); v != "" {
		level = v
	}
	format := "text"
	if v := os.Getenv("ITEMTRACK_LOG_FORMAT"); v != "" {
		format = v
	}
	_ = logging.Setup(logging.Options{
		Level:  level,
		Format: format,
		Output: os.Stdout,
	})

	app := ui.NewApp()
	app.Run()
}
