// Package metrics defines the Prometheus collectors exported by the media
// catalog: resolution counters, named-entity cache activity, validation pass
// state, change-notification dispatch, filesystem retry behavior, and
// repository query timings.
//
// Collectors are registered with the default registry via promauto at
// package init. The /metrics endpoint is wired up in main.
package metrics
