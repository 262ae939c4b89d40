// Package factory provides a small generic registry used to instantiate
// pluggable modules, such as metrics sinks, from configuration, plus the
// map-to-struct decoding shared with the device constructors.
//
// Example usage:
//
//	reg := factory.NewRegistry[metrics.Sink]()
//	reg.Register("nop", func(map[string]any) (metrics.Sink, error) {
//	    return metrics.NopSink{}, nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "nop"})
//
// Device kinds are a closed set and are not registered here; they only use
// DecodeStrict to turn their raw settings into typed configs.
package factory
