// Package model holds the data types shared across the source-finding
// pipeline: image maps, headers, detected islands and the narrow
// cross-process handoff state.
package model
