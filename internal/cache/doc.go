// Package cache is the two-tier response cache in front of the gateway.
//
// # Tiers
//
// The memory tier holds decoded values for the life of the process. The
// persistent tier (a Store) holds JSON payloads across restarts: SQLite by
// default, Redis when configured, or nothing.
//
// # Read Semantics
//
// Get implements stale-while-revalidate without a TTL:
//
//  1. forceRefresh: fetch, write both tiers, return the fresh value.
//  2. memory hit: return immediately, no revalidation.
//  3. persistent hit: load into memory, start a background fetch that
//     overwrites both tiers, return the persisted value without waiting.
//  4. miss: fetch synchronously, write both tiers, return.
//
// Background revalidations are deduplicated per key with singleflight and
// tracked so Wait can block until they finish. Their failures are logged and
// never surfaced; the stale value simply stays in place.
//
// # Invalidation
//
// Entries never expire. They are replaced by a forced refresh or a completed
// revalidation, removed by Invalidate, and dropped wholesale by Clear (on
// logout). Clear bumps a generation counter and Invalidate bumps a per-key
// version, so a revalidation that started before either cannot repopulate the
// cache afterwards.
//
// # Degradation
//
// Persistent-tier failures (unreachable Redis, disk errors, undecodable rows)
// never fail a read. They are logged, counted, and the cache carries on with
// memory only.
package cache
