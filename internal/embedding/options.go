package embedding

import (
	"fmt"
	"maps"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Options are construction parameters forwarded verbatim to a provider
// factory. Keys and their meaning are defined by each provider.
type Options map[string]any

// Decode fills out (a pointer to a struct) from the options. Values are
// weakly typed so "2" decodes into an int field; keys the struct does not
// declare are rejected.
func (o Options) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(o)); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	return nil
}

// Merge returns a copy of o with every key of override applied on top.
func (o Options) Merge(override Options) Options {
	out := make(Options, len(o)+len(override))
	maps.Copy(out, o)
	maps.Copy(out, override)
	return out
}

// ParseOptions turns key=value pairs, as given on a command line, into Options.
func ParseOptions(pairs []string) (Options, error) {
	opts := make(Options, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid option %q: expected key=value", p)
		}
		opts[k] = strings.TrimSpace(v)
	}
	return opts, nil
}
