// Package progress folds per-part transfer counters into one aggregate progress stream.
//
// Transports report cumulative bytes per part and may re-read a part from the
// start when they retry. Each part keeps a high-water mark so only bytes beyond
// it count toward the aggregate, which therefore never decreases and never
// exceeds the payload size.
//
// Each part registers a listener for the duration of its transfer; the
// aggregator sums the listeners and forwards monotonic events to the sink.
package progress
