// package repositories provides persistence layer implementations for cached data.
//
// SnapshotRepository caches backend snapshots locally so stats remain
// browsable between sessions and without a network round trip.
package repositories
