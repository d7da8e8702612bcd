package metrics

import "errors"

// MultiSink fans records out to several sinks. Every sink is tried; the
// errors are joined.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink over sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordStationSample(s StationSample) error {
	var errs []error
	for _, k := range m.Sinks {
		errs = append(errs, k.RecordStationSample(s))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordSwap(ev SwapEvent) error {
	var errs []error
	for _, k := range m.Sinks {
		if r, ok := k.(SwapRecorder); ok {
			errs = append(errs, r.RecordSwap(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordFault(ev FaultEvent) error {
	var errs []error
	for _, k := range m.Sinks {
		if r, ok := k.(FaultRecorder); ok {
			errs = append(errs, r.RecordFault(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordAction(ev ActionEvent) error {
	var errs []error
	for _, k := range m.Sinks {
		if r, ok := k.(ActionRecorder); ok {
			errs = append(errs, r.RecordAction(ev))
		}
	}
	return errors.Join(errs...)
}
