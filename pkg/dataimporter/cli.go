package dataimporter

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/dataimporter/manager"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "data-importer",
		Usage: "Inspect & download the registered GTFS datasets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "datasources",
				Usage:   "Directory holding the datasource YAML definitions",
				Value:   manager.DefaultDataSourcesDirectory,
				EnvVars: []string{"TRAVIGO_DATASOURCES_DIRECTORY"},
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the registered datasets",
				Action: func(c *cli.Context) error {
					registered, err := manager.GetRegisteredDataSets(c.String("datasources"))
					if err != nil {
						return err
					}

					for _, dataset := range registered {
						fmt.Printf("%s\t%s\t%s\n", dataset.Identifier, dataset.Provider.Name, dataset.Source)
					}

					return nil
				},
			},
			{
				Name:  "fetch",
				Usage: "Download a dataset to a local file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "ID of the dataset",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Usage:    "Where to write the downloaded feed",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					dataset, err := manager.GetDataset(c.String("datasources"), c.String("id"))
					if err != nil {
						return err
					}

					path, err := manager.Fetch(c.Context, dataset.Source, dataset.SourceAuthentication)
					if err != nil {
						return err
					}

					defer os.Remove(path)

					if err := copyFile(path, c.String("output")); err != nil {
						return err
					}

					log.Info().Str("dataset", dataset.Identifier).Str("output", c.String("output")).Msg("Downloaded dataset")

					return nil
				},
			},
		},
	}
}

func copyFile(source string, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(destination)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
