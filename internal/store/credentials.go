package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Credentials are the venue secrets, read from the environment only.
type Credentials struct {
	ClientID     string `env:"CTRADER_CLIENT_ID" env-default:""`
	ClientSecret string `env:"CTRADER_CLIENT_SECRET" env-default:""`
	AccessToken  string `env:"CTRADER_ACCESS_TOKEN" env-default:""`
	AccountID    int64  `env:"CTRADER_ACCOUNT_ID" env-default:"0"`
	HostType     string `env:"CTRADER_HOST_TYPE" env-default:"demo"`
}

func LoadCredentials() (*Credentials, error) {
	var c Credentials
	if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, fmt.Errorf("failed to read venue credentials: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Credentials) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "CTRADER_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "CTRADER_CLIENT_SECRET")
	}
	if c.AccessToken == "" {
		missing = append(missing, "CTRADER_ACCESS_TOKEN")
	}
	if c.AccountID <= 0 {
		missing = append(missing, "CTRADER_ACCOUNT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing venue credentials: %s", strings.Join(missing, ", "))
	}
	switch strings.ToLower(c.HostType) {
	case "live", "demo":
	default:
		return errors.New("CTRADER_HOST_TYPE must be 'live' or 'demo'")
	}
	return nil
}

// Live reports whether the live endpoint is selected.
func (c *Credentials) Live() bool {
	return strings.EqualFold(c.HostType, "live")
}

// Endpoint picks the venue URL for the selected environment.
func (c *Credentials) Endpoint(cfg *Config) string {
	if c.Live() {
		return cfg.Venue.LiveURL
	}
	return cfg.Venue.DemoURL
}
