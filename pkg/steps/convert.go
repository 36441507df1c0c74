package steps

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Argument is one matched step argument after extraction and conversion.
// Raw is the captured text; Value carries the converted value the handler
// will receive, or the raw string when the definition has no handler.
type Argument struct {
	Name  string
	Raw   string
	Value any
}

// ConvertFunc turns a captured string into a handler argument value.
type ConvertFunc func(raw string) (any, error)

var durationType = reflect.TypeOf(time.Duration(0))

// convertArg converts a captured string to the target parameter type.
func convertArg(arg string, targetType reflect.Type) (reflect.Value, error) {
	if targetType == durationType {
		v, err := time.ParseDuration(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v), nil
	}

	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(arg).Convert(targetType), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(arg, 10, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v).Convert(targetType), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(arg, 10, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v).Convert(targetType), nil

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(arg, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v).Convert(targetType), nil

	case reflect.Bool:
		v, err := strconv.ParseBool(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(v).Convert(targetType), nil

	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type: %s", targetType)
	}
}

// convertCapture resolves one capture to its final argument value. A
// registered converter wins over the declared-type conversion; without a
// handler the raw string passes through untouched.
func convertCapture(c Capture, target reflect.Type, conv ConvertFunc) (any, error) {
	if conv != nil {
		v, err := conv(c.Raw)
		if err != nil {
			return nil, &ArgumentConversionError{Argument: c.Name, Raw: c.Raw, Target: target, Err: err}
		}
		if target != nil && v != nil && !reflect.TypeOf(v).AssignableTo(target) {
			err := fmt.Errorf("converter returned %T", v)
			return nil, &ArgumentConversionError{Argument: c.Name, Raw: c.Raw, Target: target, Err: err}
		}
		return v, nil
	}
	if target == nil {
		return c.Raw, nil
	}
	v, err := convertArg(c.Raw, target)
	if err != nil {
		return nil, &ArgumentConversionError{Argument: c.Name, Raw: c.Raw, Target: target, Err: err}
	}
	return v.Interface(), nil
}
