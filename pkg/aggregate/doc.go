// Package aggregate provides the bucketing and ranking helpers report plugins
// share: static histogram axes for byte sizes and client counts, a top-N
// ranker, a trailing time-bucket windower and cumulative last-active counts.
//
// Every helper is deterministic for identical input so chart output can be
// compared against golden values.
package aggregate
