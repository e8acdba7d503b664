package compute

import (
	"fmt"
	"strconv"
	"strings"

	"groupagg/internal/aggregate"
	apperrors "groupagg/internal/errors"
)

// Parse builds a computation from a spec of the form "op[:arg...]":
//
//	max:col min:col mean:col sum:col median:col sd:col
//	count first:col linfit:y:x[:shift]
func Parse(spec string) (aggregate.ComputeFunc, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	op, args := strings.ToLower(parts[0]), parts[1:]

	for _, a := range args {
		if a == "" {
			return nil, invalidSpec(spec, "empty argument")
		}
	}

	single := map[string]func(string, ...Option) aggregate.ComputeFunc{
		"max":    MaxOf,
		"min":    MinOf,
		"mean":   MeanOf,
		"sum":    SumOf,
		"median": MedianOf,
		"sd":     StdDevOf,
		"first":  First,
	}
	if build, ok := single[op]; ok {
		if len(args) != 1 {
			return nil, invalidSpec(spec, op+" takes exactly one column")
		}
		return build(args[0]), nil
	}

	switch op {
	case "count", "n":
		if len(args) != 0 {
			return nil, invalidSpec(spec, "count takes no arguments")
		}
		return Count(), nil
	case "linfit":
		if len(args) != 2 && len(args) != 3 {
			return nil, invalidSpec(spec, "linfit takes y, x and an optional shift")
		}
		var opts []Option
		if len(args) == 3 {
			shift, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return nil, invalidSpec(spec, fmt.Sprintf("invalid shift %q", args[2]))
			}
			opts = append(opts, WithShift(shift))
		}
		return LinearFit(args[0], args[1], opts...), nil
	case "":
		return nil, invalidSpec(spec, "missing operation")
	default:
		return nil, invalidSpec(spec, fmt.Sprintf("unknown operation %q", op))
	}
}

// ParseList parses every spec and combines the results in order.
func ParseList(specs []string) (aggregate.ComputeFunc, error) {
	if len(specs) == 0 {
		return nil, apperrors.NewAppValidationError("at least one computation is required")
	}
	fns := make([]aggregate.ComputeFunc, 0, len(specs))
	for _, s := range specs {
		fn, err := Parse(s)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	if len(fns) == 1 {
		return fns[0], nil
	}
	return Combine(fns...), nil
}

func invalidSpec(spec, reason string) error {
	return apperrors.NewAppValidationError(fmt.Sprintf("invalid computation %q: %s", spec, reason)).
		WithContext("spec", spec)
}
