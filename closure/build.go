package closure

import (
	"github.com/google/uuid"

	"embervm/value"
)

// NewClosure builds a ClosureValue for CREATE_CLOSURE (spec.md §4.5). Each
// closure gets a fresh uuid rather than the teacher's bare counter, since
// task VMs mint closures on independent goroutines and a process-wide
// monotonic counter would need its own synchronization to stay collision
// free — a uuid sidesteps that entirely (ground: wudi-hey's use of
// google/uuid for request/session identifiers it must mint concurrently).
func NewClosure(functionName string, startAddr, endAddr int, capturedEnv interface{}, capturedVars []string) *value.ClosureValue {
	return &value.ClosureValue{
		ID:           uuid.NewString(),
		FunctionName: functionName,
		StartAddress: startAddr,
		EndAddress:   endAddr,
		CapturedEnv:  capturedEnv,
		CapturedVars: capturedVars,
	}
}
