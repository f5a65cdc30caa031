package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// validateStruct runs the validate tags and reports failures by their
// configuration key, e.g. "timings.locate_timeout".
func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s fails %s", key, rule))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// toMap renders a settings struct as plain values. Durations become strings
// like "1.5s".
func toMap(v any) (map[string]any, error) {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// overlay merges src onto dst. Nested maps merge key by key; any other
// value, lists included, replaces what was there.
func overlay(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if nested, ok := asMap(v); ok {
			if existing, ok := asMap(dst[k]); ok {
				dst[k] = overlay(existing, nested)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

// asMap accepts the map shapes JSON and YAML decoders produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// decode fills out from data. Unknown keys are rejected so typos surface.
func decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

// apply overlays data onto current and decodes the result into next.
func apply(current any, data map[string]any, next any) error {
	base, err := toMap(current)
	if err != nil {
		return fmt.Errorf("failed to render settings: %w", err)
	}
	if err := decode(overlay(base, data), next); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	return nil
}
