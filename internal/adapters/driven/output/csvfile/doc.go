// Package csvfile writes the invoice line stream and catalog exports as
// CSV files.
package csvfile
