// Package infra holds the adapters around the station core: the operator
// console, the MQTT command bridge, metrics sinks and error monitoring.
// They depend only on the interfaces defined in the core packages.
package infra
