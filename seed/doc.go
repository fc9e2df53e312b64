// Package seed loads default prompt definitions eagerly from an fs.FS (a
// directory on disk or the bundle embedded in the binary) and installs the
// missing ones into a prompt store.
package seed
