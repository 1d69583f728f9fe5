/*
Package ports defines the driven ports (interfaces) for the ruleflow engine.

These interfaces decouple the pure evaluation logic from storage and
coordination, so flows can be persisted in memory, on disk or in Redis, and
read from a document catalog, without the engine knowing which.

# Key Interfaces

  - FlowStore: Persists authored flows (drafts) by ID.
  - FlowCatalog: Read-only source of published flow definitions.
  - DistributedLocker: Coordinates concurrent edits of the same flow across replicas.
*/
package ports
