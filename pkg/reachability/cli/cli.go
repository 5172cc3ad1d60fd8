package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/aggregator"
	"github.com/travigo/reachability/pkg/dataimporter/manager"
	"github.com/travigo/reachability/pkg/reachability"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Find every stop reachable from an origin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "feed",
				Usage:    "Registered dataset ID, GTFS zip, directory or URL",
				Required: true,
				EnvVars:  []string{"TRAVIGO_FEED"},
			},
			&cli.StringFlag{
				Name:    "datasources",
				Usage:   "Directory holding the datasource YAML definitions",
				Value:   manager.DefaultDataSourcesDirectory,
				EnvVars: []string{"TRAVIGO_DATASOURCES_DIRECTORY"},
			},
			&cli.StringSliceFlag{
				Name:  "origin",
				Usage: "Origin stop ID, may be repeated",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Use every stop whose name contains this text as an origin",
			},
			&cli.DurationFlag{
				Name:  "budget",
				Value: 5 * time.Hour,
				Usage: "Travel time budget",
			},
			&cli.IntFlag{
				Name:  "transfers",
				Value: 1,
				Usage: "Maximum number of transfers",
			},
			&cli.StringFlag{
				Name:  "window",
				Usage: "Departure window, a named window or HH:MM:SS-HH:MM:SS",
			},
			&cli.StringFlag{
				Name:     "policy",
				Usage:    "best-overall or best-per-transfer-count",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "Expression destinations must match, eg. 'Transfers == 0'",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "table",
				Usage: "table, json or csv",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Dump the query and raw labels",
			},
		},
		Action: func(c *cli.Context) error {
			policy, err := aggregator.ParsePolicy(c.String("policy"))
			if err != nil {
				return err
			}

			window, err := reachability.ParseWindow(c.String("window"))
			if err != nil {
				return err
			}

			feed, err := manager.LoadSource(c.Context, c.String("datasources"), c.String("feed"))
			if err != nil {
				return err
			}
			index, _ := feed.BuildIndex()

			origins := c.StringSlice("origin")
			if name := c.String("name"); name != "" {
				origins = append(origins, index.FindStopsByName(name)...)
			}
			if len(origins) == 0 {
				log.Warn().Msg("No origin stops given, nothing is reachable")
			}

			query := reachability.Query{
				Origins:      origins,
				Budget:       c.Duration("budget"),
				MaxTransfers: c.Int("transfers"),
				Window:       window,
			}

			started := time.Now()
			labels, err := reachability.Search(index, query)
			if err != nil {
				return err
			}
			log.Info().Int("stops", len(labels)).Dur("duration", time.Since(started)).Msg("Search finished")

			if c.Bool("debug") {
				pretty.Println(query)
				pretty.Println(labels)
			}

			destinations, err := aggregator.Aggregate(index, labels, policy)
			if err != nil {
				return err
			}
			destinations, err = aggregator.Filter(destinations, c.String("filter"))
			if err != nil {
				return err
			}

			return writeDestinations(os.Stdout, c.String("format"), destinations)
		},
	}
}

func writeDestinations(writer io.Writer, format string, destinations []aggregator.Destination) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(destinations)
	case "csv":
		return gocsv.Marshal(destinations, writer)
	case "table":
		table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(table, "STOP\tNAME\tTRAVEL TIME\tTRANSFERS")
		for _, destination := range destinations {
			fmt.Fprintf(table, "%s\t%s\t%s\t%d\n", destination.StopID, destination.Name, destination.TravelTimeText, destination.Transfers)
		}
		return table.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
