// Package config reads process configuration from the environment, with
// optional .env file support. ukaddresskit settings use UKADDRESS_*
// keys (UKADDRESS_HOME, UKADDRESS_MODEL, UKADDRESS_DEBUG, the
// UKADDRESS_TAGGER backend selector); the batch driver additionally
// honours the standard PG* connection variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// LoadEnv folds a .env file into the environment. The file is searched
// for in the working directory and up to two parents; variables already
// set in the environment are never overridden. A missing file is not an
// error.
func LoadEnv() error {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		applyEnvFile(string(data))
		break
	}
	return nil
}

func applyEnvFile(data string) {
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if os.Getenv(key) == "" {
			os.Setenv(key, strings.TrimSpace(value))
		}
	}
}

// GetEnv returns the named variable or a default when unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt returns the named variable parsed as an integer, or the
// default when unset or unparseable.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetEnvBool returns the named variable parsed as a boolean, or the
// default when unset or unrecognised.
func GetEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return defaultValue
}
