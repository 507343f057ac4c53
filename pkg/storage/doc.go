// Package storage saves scraped pages to disk.
//
// Each page becomes a group of files sharing a slug derived from its URL:
// <slug>.md, <slug>.html, <slug>.png (or .screenshot.txt for hosted
// screenshots) and <slug>.json with metadata and links. The JSON sidecar
// doubles as the marker used to skip pages saved by a previous run.
//
// All writes go to a temporary file first and are renamed into place, so an
// interrupted run never leaves a truncated document behind.
package storage
