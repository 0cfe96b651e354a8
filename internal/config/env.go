package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// The env* helpers read optional settings. An unset, empty or unparsable
// value yields the default d; required values go through must/mustInt.

func envStr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil {
		return dur
	}
	return d
}

// envSet splits a comma separated list into an upper-cased set.
func envSet(k, d string) map[string]bool {
	set := map[string]bool{}
	for _, p := range strings.FieldsFunc(envStr(k, d), func(r rune) bool { return r == ',' || r == ' ' }) {
		set[strings.ToUpper(p)] = true
	}
	return set
}
