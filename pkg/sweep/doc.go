// Package sweep schedules the recurring maintenance jobs: trial expiry,
// usage event retention, and billing event retries. Jobs run on a UTC
// cron under a per-job system scope.
package sweep
