// Package batch runs a tool operation over a list of message IDs and
// reports per-item outcomes as a single JSON document.
package batch
