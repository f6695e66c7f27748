package main

import (
	"github.com/research-copilot/backend/internal/server"
	"github.com/research-copilot/backend/internal/util"
	"github.com/research-copilot/backend/pkg/logger"
	"github.com/research-copilot/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
