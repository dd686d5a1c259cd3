// package repositories provides the persistence layer for the batch
// registry: a small SQLite metadata store mapping each record type to the
// batch currently published as "latest".
//
// The registry is the authoritative latest pointer. Both record types are
// repointed inside a single transaction, so readers never observe a batch
// applied to one record type but not the other.
package repositories
