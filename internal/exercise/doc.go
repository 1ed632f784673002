// Package exercise defines the catalog of exercises that are turned into
// speech audio: an ordered, immutable list of (filename, text) pairs.
package exercise
