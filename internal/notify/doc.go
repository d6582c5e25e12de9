// Package notify broadcasts catalog change deltas.
//
// Validation hands a delta to NotifyChanged and moves on; a background
// dispatcher delivers it to in-process listeners and the transport-layer
// broadcast. The queue is bounded and overflow drops rather than blocks.
package notify
