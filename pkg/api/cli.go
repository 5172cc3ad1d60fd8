package api

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/api/cachedresults"
	"github.com/travigo/reachability/pkg/api/routes"
	"github.com/travigo/reachability/pkg/dataimporter/manager"
	"github.com/travigo/reachability/pkg/metrics"
	"github.com/travigo/reachability/pkg/redis_client"
	"github.com/travigo/reachability/pkg/stats"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the reachability web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
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
					&cli.BoolFlag{
						Name:    "cache",
						Usage:   "Cache results in Redis",
						EnvVars: []string{"TRAVIGO_REACHABILITY_CACHE"},
					},
					&cli.DurationFlag{
						Name:  "cache-expiration",
						Value: 90 * time.Minute,
						Usage: "How long cached results are kept",
					},
				},
				Action: func(c *cli.Context) error {
					feed, err := manager.LoadSource(c.Context, c.String("datasources"), c.String("feed"))
					if err != nil {
						return err
					}

					index, summary := feed.BuildIndex()

					collector := metrics.NewCollector()
					collector.IndexedStops.Set(float64(len(index.Stops())))
					collector.IndexedTrips.Set(float64(len(index.TripIDs())))

					dataset := &routes.Dataset{
						Identifier: c.String("feed"),
						Index:      index,
						Stats:      stats.Calculate(feed, index, summary),
						Metrics:    collector,
					}

					if c.Bool("cache") {
						if err := redis_client.Connect(); err != nil {
							log.Fatal().Err(err).Msg("Failed to connect to Redis")
						}

						dataset.Cache = &cachedresults.Cache{}
						dataset.Cache.Setup(redis_client.Client, c.Duration("cache-expiration"))
					}

					return SetupServer(c.String("listen"), dataset)
				},
			},
		},
	}
}
