// package tasks implements the batch cycle: extract, transform, publish.
//
// The core abstraction is EtlEngine, whose step methods map one-to-one onto
// the tasks an external orchestrator schedules. Each step is idempotent-safe
// to retry while its upstream artifact exists, surfaces a typed error, and
// leaves the filesystem in the last-known-good state on failure. Steps emit
// progress updates via channels for non-blocking status reporting to the CLI.
package tasks
