// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CredentialsStore: Access token file
//   - CheckpointStore: Purchase-date watermark persistence
//   - InvoiceAPI / ProductAPI: The remote POS API (via the resilient gateway)
//   - InvoiceOutput: The invoice CSV stream
//   - ProductSink: The catalog export file writer
//   - RunLock: Single-instance guard
//   - ConfigStore: Raw configuration file access
//   - SettingsSchema: Key listing, coercion and validation for settings
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunHistoryStore: Run history. Without it, runs are not recorded.
//   - BlobUploader: Blob storage. Without it, upload is disabled.
//   - SyncObserver / RunReporter: Metrics. Without them, nothing is reported.
//   - SchedulerStore: Scheduler state. Required only by `kvsync schedule`.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
