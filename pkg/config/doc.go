// Package config loads typed configuration from environment variables
// and an optional .env file.
//
// Components declare their settings as structs with env tags (see
// AppConfig, pkg/pg.Config, pkg/redis.Config) and call Load or MustLoad
// during startup. Each type is parsed once per process and cached.
package config
