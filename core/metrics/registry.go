package metrics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// SinkConfig selects a sink implementation by type and carries its raw
// settings.
type SinkConfig struct {
	Type string         `json:"type" yaml:"type"`
	Conf map[string]any `json:"conf" yaml:"conf"`
}

// Factory builds a sink from raw settings.
type Factory func(conf map[string]any) (Sink, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds a sink factory under name.
func Register(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("nil factory for sink %q", name)
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, ok := factories[name]; ok {
		return fmt.Errorf("sink %q already registered", name)
	}
	factories[name] = f
	return nil
}

// Registered lists the known sink types.
func Registered() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the configured sinks. No configuration yields a NopSink, a
// single entry its sink, several entries a MultiSink.
func New(cfgs []SinkConfig) (Sink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	sinks := make([]Sink, 0, len(cfgs))
	for _, c := range cfgs {
		regMu.RLock()
		f, ok := factories[c.Type]
		regMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown sink type %q", c.Type)
		}
		s, err := f(c.Conf)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", c.Type, err)
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

// Decode fills out from raw settings using json tags. String values are
// converted to durations and numbers where the target field needs it.
func Decode(conf map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(conf)
}
