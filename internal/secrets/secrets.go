// Package secrets loads broker credentials at startup.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials is returned when a required credential is unset.
var ErrMissingCredentials = errors.New("missing credentials")

// Credentials authenticate against the market-data provider.
type Credentials struct {
	APIKey      string
	APISecret   string
	AccessToken string
}

// Load reads envFile (if present) into the environment, then collects
// {PREFIX}_API_KEY, {PREFIX}_API_SECRET and {PREFIX}_ACCESS_TOKEN.
// Variables already set in the environment win over the file.
func Load(envFile, prefix string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Credentials{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	prefix = strings.ToUpper(strings.TrimSuffix(prefix, "_"))
	creds := Credentials{
		APIKey:      os.Getenv(prefix + "_API_KEY"),
		APISecret:   os.Getenv(prefix + "_API_SECRET"),
		AccessToken: os.Getenv(prefix + "_ACCESS_TOKEN"),
	}
	return creds, nil
}

// Require checks that the named fields are populated.
func (c Credentials) Require(fields ...string) error {
	var missing []string
	for _, f := range fields {
		var v string
		switch f {
		case "api_key":
			v = c.APIKey
		case "api_secret":
			v = c.APISecret
		case "access_token":
			v = c.AccessToken
		default:
			return fmt.Errorf("unknown credential field %q", f)
		}
		if v == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}
