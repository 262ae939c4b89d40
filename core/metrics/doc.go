// Package metrics defines the sinks observing a simulation run. A Sink
// records every completed step; sinks that also implement RunRecorder get
// the run summary. Implementations such as PromSink and InfluxSink live in
// infra/metrics and register themselves with the factory, so a
// configuration listing several sinks yields a MultiSink.
package metrics
