// Package interfaces defines the core types and interfaces of the token
// governance service, separating them from their implementations.
//
// # Governance
//
// Governance is the registry engine: a single network governor administers a
// token registry, a validator set and the bridge manager identity. Callers are
// passed in already authenticated, as a common.Address.
//
// # Events
//
// Every accepted mutation produces an Event, recorded as a sequence-numbered
// EventRecord and fanned out to Emitters.
//
// # Storage
//
//   - StorageBackend: keyed blob storage used for state snapshots
//   - StorageBackendFactory: creates backends from URI strings
//   - SnapshotStore: saves and loads the latest governance Snapshot
//
// # Types
//
//   - TokenID: registry identifier in the range (0, MaxTokenID)
//   - Token: registry record for a token
//   - ContentID: keccak256 digest used to checksum stored content
//   - NullAddress and NativeTokenAddress: the two reserved addresses
package interfaces
