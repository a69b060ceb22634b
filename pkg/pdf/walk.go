package pdf

import "github.com/pkg/errors"

// visitRefs calls fn for every reference inside obj, depth first, visiting
// dictionary entries in sorted key order.
func visitRefs(obj Object, fn func(Reference) error) error {
	switch v := obj.(type) {
	case nil, Null, Boolean, Integer, Real, String, Name:
		return nil
	case Reference:
		return fn(v)
	case Array:
		for _, item := range v {
			if err := visitRefs(item, fn); err != nil {
				return err
			}
		}
		return nil
	case Dictionary:
		for _, k := range v.Keys() {
			if err := visitRefs(v[k], fn); err != nil {
				return err
			}
		}
		return nil
	case Stream:
		return visitRefs(v.Dictionary, fn)
	default:
		return errors.Errorf("pdf: unhandled object type %T", obj)
	}
}

// rewriteRefs returns a copy of obj with every reference replaced by the
// result of fn. Containers are always copied, so obj is never modified.
// A dictionary entry whose replacement is null is dropped.
func rewriteRefs(obj Object, fn func(Reference) (Object, error)) (Object, error) {
	switch v := obj.(type) {
	case nil:
		return Null{}, nil
	case Null, Boolean, Integer, Real, Name:
		return v, nil
	case String:
		return String{Value: append([]byte(nil), v.Value...), IsHex: v.IsHex}, nil
	case Reference:
		return fn(v)
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			repl, err := rewriteRefs(item, fn)
			if err != nil {
				return nil, err
			}
			out[i] = repl
		}
		return out, nil
	case Dictionary:
		out := make(Dictionary, len(v))
		for _, k := range v.Keys() {
			repl, err := rewriteRefs(v[k], fn)
			if err != nil {
				return nil, err
			}
			if _, isNull := repl.(Null); isNull {
				continue
			}
			out[k] = repl
		}
		return out, nil
	case Stream:
		dict, err := rewriteRefs(v.Dictionary, fn)
		if err != nil {
			return nil, err
		}
		return Stream{Dictionary: dict.(Dictionary), Data: v.Data}, nil
	default:
		return nil, errors.Errorf("pdf: unhandled object type %T", obj)
	}
}
