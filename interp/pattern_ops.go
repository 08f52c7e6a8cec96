package interp

import (
	"embervm/env"
	"embervm/pattern"
	"embervm/value"
)

// execMatchPattern implements MATCH_PATTERN (spec.md §4.7): pop the pattern
// and the value under test, push a bool, and on a match define any
// produced bindings in the current environment.
func (i *Interpreter) execMatchPattern() error {
	patternVal := i.pop()
	subject := i.pop()

	matched, bindings := pattern.Match(subject, patternVal)
	for name, v := range bindings {
		i.curEnv.Define(name, v, env.Private)
	}
	i.push(value.NewBool(matched))
	return nil
}
