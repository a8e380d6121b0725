// Package domain defines the core business entities for kvsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - AccessCredentials: The bearer token and tenant routing values
//   - Invoice / InvoiceLine: Sales records read from the POS API
//   - Checkpoint: The durable purchase-date watermark
//   - SyncResult / SyncRun: The outcome of a synchronization run
//   - Settings: Typed application configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/shopspring/decimal (value type)
//   - Cannot Import: Any internal/ package, any other external dependency
package domain
