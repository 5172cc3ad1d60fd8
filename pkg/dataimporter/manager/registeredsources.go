package manager

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/dataimporter/datasets"
	"gopkg.in/yaml.v3"
)

const DefaultDataSourcesDirectory = "data/datasources/"

// GetRegisteredDataSets walks the datasource directory and flattens every
// datasource YAML document into its datasets.
func GetRegisteredDataSets(directory string) ([]datasets.DataSet, error) {
	var registeredDatasets []datasets.DataSet

	err := filepath.Walk(directory,
		func(path string, fileInfo os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if fileInfo.IsDir() || filepath.Ext(path) != ".yaml" {
				return nil
			}

			log.Debug().Str("path", path).Msg("Loading datasource file")

			datasourceYaml, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			decoder := yaml.NewDecoder(bytes.NewReader(datasourceYaml))

			for {
				var datasource datasets.DataSource
				err := decoder.Decode(&datasource)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("decoding %s: %w", path, err)
				}

				for _, dataset := range datasource.Datasets {
					dataset.Identifier = fmt.Sprintf("%s-%s", datasource.Identifier, dataset.Identifier)
					dataset.DataSourceRef = datasource.Identifier
					dataset.Provider = datasource.Provider

					if datasource.SourceAuthentication != nil {
						dataset.SourceAuthentication = *datasource.SourceAuthentication
					}
					if dataset.Format == "" {
						dataset.Format = datasets.DataSetFormatGTFSSchedule
					}

					registeredDatasets = append(registeredDatasets, dataset)
				}
			}

			return nil
		})
	if err != nil {
		return nil, err
	}

	return registeredDatasets, nil
}
