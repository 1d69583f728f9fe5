/*
Package drafts orchestrates edits of authored flows.

A Manager serializes every read-modify-write of one flow behind a per-flow
lock held in memory and, when configured, a distributed lock shared with other
replicas. It stamps updated_at on every save so stores and clients can tell
which revision they are looking at.
*/
package drafts
