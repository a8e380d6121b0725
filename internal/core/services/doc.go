// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on domain, the ports and the logger; adapters are
// injected by the composition root in internal/app.
package services
