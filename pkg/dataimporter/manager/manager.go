package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/dataimporter/datasets"
	"github.com/travigo/reachability/pkg/dataimporter/formats/gtfs"
	"github.com/travigo/reachability/pkg/util"
)

var ErrDatasetNotFound = errors.New("dataset could not be found")

func GetDataset(directory string, identifier string) (datasets.DataSet, error) {
	registered, err := GetRegisteredDataSets(directory)
	if err != nil {
		return datasets.DataSet{}, err
	}

	for _, dataset := range registered {
		if dataset.Identifier == identifier {
			return dataset, nil
		}
	}

	return datasets.DataSet{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, identifier)
}

// LoadDataset fetches the dataset source when it is remote and parses it.
func LoadDataset(ctx context.Context, dataset datasets.DataSet) (*gtfs.Schedule, error) {
	if dataset.Format != datasets.DataSetFormatGTFSSchedule {
		return nil, fmt.Errorf("unrecognised format %s", dataset.Format)
	}

	log.Info().Str("dataset", dataset.Identifier).Str("provider", dataset.Provider.Name).Msg("Loading dataset")

	return loadSource(ctx, dataset.Source, dataset.SourceAuthentication)
}

// LoadSource accepts either a registered dataset identifier or anything
// LoadFeed understands.
func LoadSource(ctx context.Context, directory string, source string) (*gtfs.Schedule, error) {
	if dataset, err := GetDataset(directory, source); err == nil {
		return LoadDataset(ctx, dataset)
	}

	return LoadFeed(ctx, source)
}

// LoadFeed loads a GTFS feed from a local zip, a local directory or a URL.
func LoadFeed(ctx context.Context, source string) (*gtfs.Schedule, error) {
	return loadSource(ctx, source, datasets.SourceAuthentication{})
}

func loadSource(ctx context.Context, source string, authentication datasets.SourceAuthentication) (*gtfs.Schedule, error) {
	if !isValidUrl(source) {
		return gtfs.Parse(source)
	}

	tempFile, err := Fetch(ctx, source, authentication)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tempFile)

	return gtfs.ParseZip(tempFile)
}

func isValidUrl(toTest string) bool {
	_, err := url.ParseRequestURI(toTest)
	if err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// Fetch downloads source into a temporary file, retrying with exponential
// backoff on network errors and 5xx/429 responses. The caller removes the file.
func Fetch(ctx context.Context, source string, authentication datasets.SourceAuthentication) (string, error) {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = 2 * time.Minute

	var path string
	operation := func() error {
		var err error
		path, err = tempDownloadFile(ctx, source, authentication)
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("source", source).Dur("wait", wait).Msg("Download failed, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(retryBackoff, ctx), notify); err != nil {
		return "", err
	}

	return path, nil
}

func tempDownloadFile(ctx context.Context, source string, authentication datasets.SourceAuthentication) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", "curl/7.54.1")

	env := util.GetEnvironmentVariables()
	query := req.URL.Query()
	for key, value := range authentication.Query {
		query.Set(key, util.ExpandEnvironment(value, env))
	}
	req.URL.RawQuery = query.Encode()
	for key, value := range authentication.Header {
		req.Header.Set(key, util.ExpandEnvironment(value, env))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("download %s returned %s", source, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return "", backoff.Permanent(fmt.Errorf("download %s returned %s", source, resp.Status))
	}

	tmpFile, err := os.CreateTemp(os.TempDir(), "reachability-feed-")
	if err != nil {
		return "", backoff.Permanent(err)
	}
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}

	return tmpFile.Name(), nil
}
