package cli

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/dataimporter/manager"
	"github.com/travigo/reachability/pkg/stats"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print statistics about a GTFS feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "feed",
				Usage:    "Dataset identifier, GTFS zip, directory or URL",
				Required: true,
				EnvVars:  []string{"TRAVIGO_FEED"},
			},
			&cli.StringFlag{
				Name:  "datasources",
				Value: manager.DefaultDataSourcesDirectory,
				Usage: "Directory of registered data source definitions",
			},
		},
		Action: func(c *cli.Context) error {
			feed, err := manager.LoadSource(c.Context, c.String("datasources"), c.String("feed"))
			if err != nil {
				return err
			}

			index, summary := feed.BuildIndex()
			feedStats := stats.Calculate(feed, index, summary)

			log.Info().
				Int("stops", feedStats.Stops.Total).
				Int("trips", feedStats.Trips.Total).
				Msg("Calculated feed stats")

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(feedStats)
		},
	}
}
