package flagx

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

func envValue(key string) (string, bool) {
	v, ok := lookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	if v, ok := envValue(key); ok {
		return v
	}
	return def
}

// EnvInt reads an int env var with a default. A value that is not an
// integer is an error. Range checks are left to the caller.
func EnvInt(key string, def int) (int, error) {
	v, ok := envValue(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

// EnvDuration reads a duration env var with a default. Both Go durations
// ("90m") and bare integers, taken as seconds, are accepted.
func EnvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := envValue(key)
	if !ok {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
