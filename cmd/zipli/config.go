package main

import (
	"fmt"

	"zipli/pkg/types"

	"github.com/kelseyhightower/envconfig"
)

func loadConfig() (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8080
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 10
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 15
	}

	if c.DevUserID != "" && c.Environment != "development" {
		return nil, fmt.Errorf("DEV_USER_ID is only allowed when ENVIRONMENT=development")
	}

	if c.DevUserID == "" {
		if c.SupabaseProjectRef == "" {
			return nil, fmt.Errorf("set SUPABASE_PROJECT_REF")
		}
		if c.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("set SUPABASE_ANON_KEY")
		}
	}

	return c, nil
}
