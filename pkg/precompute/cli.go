package precompute

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/aggregator"
	"github.com/travigo/reachability/pkg/consumer"
	"github.com/travigo/reachability/pkg/database"
	"github.com/travigo/reachability/pkg/dataimporter/manager"
	"github.com/travigo/reachability/pkg/metrics"
	"github.com/travigo/reachability/pkg/reachability"
	"github.com/travigo/reachability/pkg/redis_client"
	"github.com/travigo/reachability/pkg/schedule"
	"github.com/travigo/reachability/pkg/util"
	"github.com/urfave/cli/v2"
)

var feedFlags = []cli.Flag{
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
}

var planFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "origins-file",
		Usage: "File with one origin stop ID per line",
	},
	&cli.StringSliceFlag{
		Name:  "name",
		Usage: "Use every stop matching this name as an origin",
	},
	&cli.BoolFlag{
		Name:  "all-stops",
		Usage: "Use every stop of the feed as an origin",
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
	&cli.StringSliceFlag{
		Name:  "window",
		Usage: "Departure windows to search, every named window when unset",
	},
	&cli.StringFlag{
		Name:  "policy",
		Value: string(aggregator.PolicyBestOverall),
		Usage: "best-overall or best-per-transfer-count",
	},
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "precompute",
		Usage: "Batch compute reachability for many origins and windows",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a precompute plan locally",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "CSV file to write the records to",
					},
					&cli.BoolFlag{
						Name:  "store",
						Usage: "Store the records in MongoDB",
					},
					&cli.IntFlag{
						Name:  "goroutines",
						Usage: "Maximum parallel searches, GOMAXPROCS when unset",
					},
				}, feedFlags...), planFlags...),
				Action: func(c *cli.Context) error {
					index, err := loadIndex(c)
					if err != nil {
						return err
					}

					plan, err := planFromFlags(c, index)
					if err != nil {
						return err
					}
					plan.MaxGoroutines = c.Int("goroutines")

					records, runErr := Run(index, plan, nil)
					if runErr != nil {
						log.Error().Err(runErr).Msg("Some precompute searches failed")
					}

					if output := c.String("output"); output != "" {
						file, err := os.Create(output)
						if err != nil {
							return err
						}
						defer file.Close()

						if err := WriteCSV(file, records); err != nil {
							return err
						}
						log.Info().Str("output", output).Int("records", len(records)).Msg("Wrote precompute records")
					}

					if c.Bool("store") {
						if err := database.Connect(); err != nil {
							return err
						}
						if err := Store(c.Context, records); err != nil {
							return err
						}
					}

					return runErr
				},
			},
			{
				Name:  "enqueue",
				Usage: "Publish a precompute plan to the worker queue",
				Flags: append(append([]cli.Flag{}, feedFlags...), planFlags...),
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					index, err := loadIndex(c)
					if err != nil {
						return err
					}

					plan, err := planFromFlags(c, index)
					if err != nil {
						return err
					}

					queue, err := redis_client.QueueConnection.OpenQueue(QueueName)
					if err != nil {
						return err
					}

					return Enqueue(queue, plan)
				},
			},
			{
				Name:  "worker",
				Usage: "Consume queued precompute jobs and store their records",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "consumers",
						Value: 4,
						Usage: "Number of queue consumers",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Value: 10,
						Usage: "Jobs fetched per consumer batch",
					},
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: ":3333",
						Usage: "listen target for the queue stats & metrics server",
					},
				}, feedFlags...),
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					index, err := loadIndex(c)
					if err != nil {
						return err
					}

					collector := metrics.NewCollector()
					collector.IndexedStops.Set(float64(len(index.Stops())))
					collector.IndexedTrips.Set(float64(len(index.TripIDs())))

					redisConsumer := &consumer.RedisConsumer{
						QueueName:       QueueName,
						NumberConsumers: c.Int("consumers"),
						BatchSize:       c.Int("batch-size"),
						Timeout:         5 * time.Second,
						Consumer: &BatchConsumer{
							Index:   index,
							Metrics: collector,
							Store:   Store,
						},
						StatsListen: c.String("stats-listen"),
						StatsHandlers: map[string]http.Handler{
							"/metrics": collector.Handler(),
						},
					}

					return redisConsumer.Setup()
				},
			},
		},
	}
}

func loadIndex(c *cli.Context) (*schedule.Index, error) {
	feed, err := manager.LoadSource(c.Context, c.String("datasources"), c.String("feed"))
	if err != nil {
		return nil, err
	}

	index, _ := feed.BuildIndex()
	return index, nil
}

func planFromFlags(c *cli.Context, index *schedule.Index) (Plan, error) {
	policy, err := aggregator.ParsePolicy(c.String("policy"))
	if err != nil {
		return Plan{}, err
	}

	origins := []string{}
	if c.Bool("all-stops") {
		for _, stop := range index.Stops() {
			origins = append(origins, stop.ID)
		}
	}
	for _, name := range c.StringSlice("name") {
		origins = append(origins, index.FindStopsByName(name)...)
	}
	if path := c.String("origins-file"); path != "" {
		fileOrigins, err := readOrigins(path)
		if err != nil {
			return Plan{}, err
		}
		origins = append(origins, fileOrigins...)
	}

	windows := AllWindows()
	if values := c.StringSlice("window"); len(values) > 0 {
		windows = nil
		for _, value := range values {
			window, err := reachability.ParseWindow(value)
			if err != nil {
				return Plan{}, fmt.Errorf("window %q: %w", value, err)
			}
			windows = append(windows, window)
		}
	}

	return Plan{
		Dataset:      c.String("feed"),
		Origins:      util.RemoveDuplicateStrings(origins, nil),
		Windows:      windows,
		Budget:       c.Duration("budget"),
		MaxTransfers: c.Int("transfers"),
		Policy:       policy,
	}, nil
}

func readOrigins(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	origins := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		origins = append(origins, line)
	}

	return origins, scanner.Err()
}
