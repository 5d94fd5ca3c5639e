package slices

// Map converts each element of sli with mapper, keeping order.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// MapUntilError converts each element of sli with mapper.
//
// On the first error it stops and returns (nil, error).
func MapUntilError[T any, R any](sli []T, mapper func(v T) (R, error)) ([]R, error) {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return nil, err
		}
		ret[nth] = r
	}
	return ret, nil
}

// Filter picks elements of sli satisfying pred, keeping order.
func Filter[T any](sli []T, pred func(v T) bool) []T {
	ret := []T{}
	for _, v := range sli {
		if pred(v) {
			ret = append(ret, v)
		}
	}
	return ret
}

// First finds the first element satisfying pred.
func First[T any](sli []T, pred func(v T) bool) (T, bool) {
	for _, v := range sli {
		if pred(v) {
			return v, true
		}
	}
	return *new(T), false
}

// ToMap converts a slice to a map keyed with getkey.
//
// When keys collide, a later element takes over an earlier one.
func ToMap[T any, K comparable](sli []T, getkey func(v T) K) map[K]T {
	m := map[K]T{}
	for _, v := range sli {
		m[getkey(v)] = v
	}
	return m
}

// GroupBy buckets elements of sli by the key pair gives them.
func GroupBy[T any, K comparable, R any](sli []T, pair func(v T) (K, R)) map[K][]R {
	m := map[K][]R{}
	for _, v := range sli {
		k, r := pair(v)
		m[k] = append(m[k], r)
	}
	return m
}

// KeysOf flattens the keys of m into a slice, in no particular order.
func KeysOf[K comparable, T any](m map[K]T) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
