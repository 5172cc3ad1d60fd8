package aggregator

import (
	"errors"
	"fmt"
)

type Policy string

const (
	PolicyBestOverall          Policy = "best-overall"
	PolicyBestPerTransferCount Policy = "best-per-transfer-count"
)

var ErrUnknownPolicy = errors.New("unknown aggregation policy")

// ParsePolicy has no fallback, an empty value is rejected like any other.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(value) {
	case PolicyBestOverall, PolicyBestPerTransferCount:
		return Policy(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, value)
	}
}
