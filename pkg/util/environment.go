package util

import (
	"os"
	"strings"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// ExpandEnvironment replaces ${VAR} and $VAR references with values from env.
func ExpandEnvironment(value string, env map[string]string) string {
	return os.Expand(value, func(key string) string {
		return env[key]
	})
}

func EnvironmentDefault(env map[string]string, key string, fallback string) string {
	if env[key] != "" {
		return env[key]
	}
	return fallback
}
