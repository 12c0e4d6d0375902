package config

import (
	"fmt"
	"os"
	"strings"
)

// Secret reads a credential using the *_FILE convention used by
// container orchestrators: when name+"_FILE" is set the value comes
// from that file (trailing whitespace stripped), otherwise from the
// plain environment variable. Both unset yields an empty string.
func Secret(name string) (string, error) {
	if path := os.Getenv(name + "_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret %s_FILE: %w", name, err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return os.Getenv(name), nil
}

// MustSecret exits the process when the secret file is unreadable.
// Intended for startup; the error never includes the secret itself.
func MustSecret(name string) string {
	v, err := Secret(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return v
}
