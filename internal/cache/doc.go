// Package cache provides a persistent disk cache for synthesized audio.
// Entries are stored as individual files, optionally zstd compressed, and
// tracked in a gob-encoded index that survives between runs.
package cache
