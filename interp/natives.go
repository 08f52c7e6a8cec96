package interp

// RegisterBuiltin registers an unvalidated native function (spec.md §6):
// no arity/type check before invocation, intended for the language's own
// standard library. Errors it returns are wrapped in an error-union and
// subject to propagation, unless name is "assert", in which case they are
// fatal (see invokeNative).
func (i *Interpreter) RegisterBuiltin(name string, fn NativeFunc) {
	i.Natives[name] = nativeEntry{fn: fn, validated: false, arity: -1}
}

// RegisterValidated registers a native function whose argument count is
// checked against arity before invocation (spec.md §6).
func (i *Interpreter) RegisterValidated(name string, arity int, fn NativeFunc) {
	i.Natives[name] = nativeEntry{fn: fn, validated: true, arity: arity}
}
