package main

import (
	"log"

	"github.com/neovim/go-client/nvim/plugin"

	"github.com/harrison/acrocheck/internal/config"
	"github.com/harrison/acrocheck/internal/logger"
	"github.com/harrison/acrocheck/internal/nvimhost"
)

func main() {
	plugin.Main(func(p *plugin.Plugin) error {
		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// stdout carries the RPC stream, so logs only go to file.
		fl, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return err
		}
		log.Printf("[acrocheck] logging to %s", fl.RunFile())
		fl.LogInfo("registering Acrolinx commands")
		return nvimhost.Register(p, cfg, fl)
	})
}
