// Package storage persists governance snapshots on pluggable backends.
//
// Backends are selected by URI:
//
//   - file:///var/lib/governance/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - vault://vault.example.com:8200/secret/governance?token=...
//   - leveldb:///var/lib/governance/db
//
// Several locations combine into a MultiStorageBackend, which stores to every
// available backend and fetches from the first one holding the key.
//
// Snapshotter sits on top of a backend. It writes the latest snapshot under a
// fixed key together with its keccak256 checksum and refuses to overwrite a
// snapshot with one that is older in event sequence.
package storage
