// Package monitoring reports failed runs to an error tracker.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	// CaptureException reports err with tags such as the run identifier.
	CaptureException(err error, tags map[string]string)
	// Flush waits up to timeout for buffered reports to be sent.
	Flush(timeout time.Duration) bool
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration) bool                  { return true }

// Recorder keeps captured errors in memory.
type Recorder struct {
	Errors []error
	Tags   []map[string]string
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	r.Errors = append(r.Errors, err)
	r.Tags = append(r.Tags, tags)
}

func (r *Recorder) Flush(time.Duration) bool { return true }
