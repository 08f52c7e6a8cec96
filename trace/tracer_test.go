package trace

import (
	"bytes"
	"strings"
	"testing"

	"embervm/value"
)

func TestCallLogsNameAndArgs(t *testing.T) {
	var buf bytes.Buffer
	tr := New(true, nil, &buf)

	tr.Call("add", []value.Value{value.NewInt64(1), value.NewInt64(2)})

	got := buf.String()
	if !strings.Contains(got, "CALL add(") || !strings.Contains(got, "1") || !strings.Contains(got, "2") {
		t.Errorf("Call output missing name/args: %q", got)
	}
}

func TestDisabledTracerLogsNothing(t *testing.T) {
	var buf bytes.Buffer
	tr := New(false, nil, &buf)

	tr.Call("add", []value.Value{value.NewInt64(1)})
	tr.Return("add", value.NewInt64(1))
	tr.Error("add", errBoom{})

	if buf.Len() != 0 {
		t.Errorf("disabled tracer wrote %q", buf.String())
	}
}

func TestFilterRestrictsTracedNames(t *testing.T) {
	var buf bytes.Buffer
	tr := New(true, []string{"add*"}, &buf)

	tr.Call("add_tax", nil)
	tr.Call("subtract", nil)

	got := buf.String()
	if !strings.Contains(got, "add_tax") {
		t.Errorf("expected add_tax to be traced: %q", got)
	}
	if strings.Contains(got, "subtract") {
		t.Errorf("expected subtract to be filtered out: %q", got)
	}
}

func TestReturnFormatsResult(t *testing.T) {
	var buf bytes.Buffer
	tr := New(true, nil, &buf)

	tr.Return("square", value.NewInt64(9))

	if !strings.Contains(buf.String(), "RETURN square => 9") {
		t.Errorf("got %q", buf.String())
	}
}

func TestErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	tr := New(true, nil, &buf)

	tr.Error("divide", errBoom{})

	if !strings.Contains(buf.String(), "ERROR divide") {
		t.Errorf("got %q", buf.String())
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
