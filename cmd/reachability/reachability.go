package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/api"
	"github.com/travigo/reachability/pkg/dataimporter"
	"github.com/travigo/reachability/pkg/precompute"
	querycli "github.com/travigo/reachability/pkg/reachability/cli"
	statscli "github.com/travigo/reachability/pkg/stats/cli"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	if os.Getenv("TRAVIGO_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRAVIGO_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "reachability",
		Description: "Find everywhere a GTFS network can take you within a travel time budget",

		Commands: []*cli.Command{
			querycli.RegisterCLI(),
			statscli.RegisterCLI(),
			api.RegisterCLI(),
			precompute.RegisterCLI(),
			dataimporter.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
