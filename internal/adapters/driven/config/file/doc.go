// Package file provides the file-based configuration adapters.
//
// Adapters:
//   - LoadSettings: decodes the TOML config file into domain.Settings,
//     applies defaults, .env and KVSYNC_* environment overrides, then validates
//   - ConfigStore: key/value access to the same TOML file for `kvsync config`
package file
