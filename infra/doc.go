// Package infra contains technical adapters: the zerolog logger, the
// Prometheus and InfluxDB sinks, the MQTT telemetry publisher and the
// Sentry monitor. These packages should depend only on the interfaces
// defined in the core packages.
package infra
