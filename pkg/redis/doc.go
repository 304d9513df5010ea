// Package redis provides the shared Redis connection used by the hourly
// rate-limit window, with env-driven configuration and a readiness
// probe.
package redis
