// Package file provides JSON-file implementations of the credential and
// checkpoint stores.
//
// Both files are small, human-editable JSON documents. Writes go to a
// temporary file in the same directory which is synced and renamed over
// the target, so a reader sees either the old or the new content.
package file
