// Package ratelimit provides fixed hourly counting windows used to
// enforce per-hour plan limits such as api_calls.
//
// The window is fixed, not sliding: each event lands in the bucket for
// the hour containing its timestamp and all buckets reset at the top of
// the hour. RedisWindow shares the counter across API nodes;
// MemoryWindow serves tests and single-node setups.
package ratelimit
