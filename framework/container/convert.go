package container

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// convert adapts a resolved parameter value to the parameter type t.
// Configuration files yield strings, ints and float64s, so numeric kinds
// convert between each other and strings are parsed into scalars.
func convert(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch {
	case isNumber(rv.Kind()) && isNumber(t.Kind()):
		return convertNumber(rv, t)
	case rv.Kind() == reflect.String && t.Kind() == reflect.String:
		return rv.Convert(t), nil
	case rv.Kind() == reflect.String:
		return parseScalar(rv.String(), t)
	case (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && t.Kind() == reflect.Slice:
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := convert(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	case rv.Kind() == reflect.Map && t.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := convert(iter.Key().Interface(), t.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			val, err := convert(iter.Value().Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			out.SetMapIndex(key, val)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

// convertNumber converts between numeric kinds but refuses to drop a
// fractional part or a sign.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	target := reflect.New(t).Elem()
	if rv.CanFloat() && (target.CanInt() || target.CanUint()) {
		if f := rv.Float(); f != math.Trunc(f) {
			return reflect.Value{}, fmt.Errorf("cannot use %v as %s: it has a fractional part", f, t)
		}
	}
	if target.CanUint() && ((rv.CanInt() && rv.Int() < 0) || (rv.CanFloat() && rv.Float() < 0)) {
		return reflect.Value{}, fmt.Errorf("cannot use %v as %s: it is negative", rv.Interface(), t)
	}
	return rv.Convert(t), nil
}

func parseScalar(s string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("cannot use string %q as %s", s, t)
	}
	return out, nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
