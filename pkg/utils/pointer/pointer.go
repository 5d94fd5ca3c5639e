package pointer

func Ref[T any](t T) *T {
	return &t
}

// SafeDeref dereferences val, falling back to the zero value for nil.
func SafeDeref[T any](val *T) T {
	if val == nil {
		return *new(T)
	}
	return *val
}
