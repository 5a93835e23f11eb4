package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fabledbg-dev/fabledbg/adapter"
	"github.com/fabledbg-dev/fabledbg/story"
)

var (
	tcpPort     int
	dialectFlag string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the debug adapter (stdio by default, TCP with --port)",
	Run:   serveCommand,
}

func init() {
	serveCmd.Flags().IntVar(&tcpPort, "port", 0, "Listen for one DAP client at a time on 127.0.0.1:PORT instead of stdio")
	serveCmd.Flags().StringVar(&dialectFlag, "dialect", "", "Force the story dialect (twee, ink) instead of detecting by extension")
}

func serveCommand(cmd *cobra.Command, args []string) {
	cfg, err := adapter.LoadConfigFromFile(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load config file")
	}
	if tcpPort == 0 && cfg.Server.Transport == "tcp" {
		tcpPort = cfg.Server.Port
	}
	if dialectFlag == "" {
		dialectFlag = cfg.Story.Dialect
	}
	if cfg.Server.LogLevel != "" && !cmd.Flags().Changed("log-level") {
		if level, err := zerolog.ParseLevel(cfg.Server.LogLevel); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}

	factory := func(dialect story.Dialect) story.Runtime {
		if dialectFlag != "" {
			dialect = story.Dialect(dialectFlag)
		}
		return story.NewPlaybackRuntime(dialect)
	}

	if tcpPort > 0 {
		fmt.Fprintln(os.Stderr, color.Cyan.Sprintf("Debug adapter listening on 127.0.0.1:%d...", tcpPort))
		if err := adapter.ServeTCP(tcpPort, factory); err != nil {
			log.Fatal().Err(err).Msg("TCP serve failed")
		}
		return
	}

	fmt.Fprintln(os.Stderr, color.Cyan.Sprint("Debug adapter on stdio..."))
	if err := adapter.ServeStdio(factory); err != nil {
		log.Fatal().Err(err).Msg("stdio serve failed")
	}
}
