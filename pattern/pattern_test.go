package pattern

import (
	"testing"

	"embervm/value"
)

func dictPattern(kind string, fields map[string]value.Value) *value.Dict {
	d := value.NewEmptyDict()
	d = d.Set(value.NewString("__kind__"), value.NewString(kind))
	for k, v := range fields {
		d = d.Set(value.NewString(k), v)
	}
	return d
}

func listOf(vals ...value.Value) *value.List {
	l := value.EmptyList()
	for _, v := range vals {
		l = l.Append(v)
	}
	return l
}

func TestMatchNilPatternIsWildcard(t *testing.T) {
	matched, _ := Match(value.NewInt64(5), value.Nil)
	if !matched {
		t.Fatal("nil pattern should match anything")
	}
}

func TestMatchTypeNamePattern(t *testing.T) {
	cases := []struct {
		subject value.Value
		name    string
		want    bool
	}{
		{value.NewInt64(1), "int", true},
		{value.NewFloat64(1.5), "int", false},
		{value.NewString("x"), "string", true},
		{value.NewBool(true), "bool", true},
		{value.Nil, "nil", true},
	}
	for _, c := range cases {
		got, _ := Match(c.subject, value.NewString(c.name))
		if got != c.want {
			t.Errorf("Match(%v, %q) = %v, want %v", c.subject, c.name, got, c.want)
		}
	}
}

func TestMatchLiteralValueIsEquality(t *testing.T) {
	matched, _ := Match(value.NewInt64(42), value.NewInt64(42))
	if !matched {
		t.Error("expected literal 42 to match 42")
	}
	matched, _ = Match(value.NewInt64(42), value.NewInt64(43))
	if matched {
		t.Error("expected literal 42 not to match 43")
	}
}

func TestMatchDictPatternBindsFieldsAndRest(t *testing.T) {
	subject := value.NewEmptyDict().
		Set(value.NewString("name"), value.NewString("ada")).
		Set(value.NewString("age"), value.NewInt64(30)).
		Set(value.NewString("city"), value.NewString("london"))

	pat := dictPattern(KindDict, map[string]value.Value{
		"fields": listOf(value.NewString("name")),
		"rest":   value.NewString("extra"),
	})

	matched, bindings := Match(subject, pat)
	if !matched {
		t.Fatal("expected dict pattern to match")
	}
	if got := bindings["name"]; !got.Equal(value.NewString("ada")) {
		t.Errorf("expected name=ada, got %v", got)
	}
	rest, ok := bindings["extra"].(*value.Dict)
	if !ok {
		t.Fatalf("expected extra to bind a rest dict, got %T", bindings["extra"])
	}
	if v, ok := rest.Get(value.NewString("name")); ok {
		t.Errorf("rest dict should not contain the consumed field name, got %v", v)
	}
	if _, ok := rest.Get(value.NewString("age")); !ok {
		t.Error("rest dict should contain unconsumed field age")
	}
}

func TestMatchDictPatternFailsOnMissingField(t *testing.T) {
	subject := value.NewEmptyDict().Set(value.NewString("name"), value.NewString("ada"))
	pat := dictPattern(KindDict, map[string]value.Value{
		"fields": listOf(value.NewString("missing")),
	})
	matched, _ := Match(subject, pat)
	if matched {
		t.Error("expected match to fail when a listed field is absent")
	}
}

func TestMatchListPatternBindsPositionally(t *testing.T) {
	subject := listOf(value.NewInt64(1), value.NewInt64(2))
	pat := dictPattern(KindList, map[string]value.Value{
		"elements": listOf(value.NewString("a"), value.NewString("b")),
	})
	matched, bindings := Match(subject, pat)
	if !matched {
		t.Fatal("expected list pattern to match")
	}
	if !bindings["a"].Equal(value.NewInt64(1)) || !bindings["b"].Equal(value.NewInt64(2)) {
		t.Errorf("unexpected bindings: %v", bindings)
	}
}

func TestMatchListPatternFailsOnLengthMismatch(t *testing.T) {
	subject := listOf(value.NewInt64(1))
	pat := dictPattern(KindList, map[string]value.Value{
		"elements": listOf(value.NewString("a"), value.NewString("b")),
	})
	matched, _ := Match(subject, pat)
	if matched {
		t.Error("expected a length mismatch to fail the match")
	}
}

func TestMatchValPatternRequiresSuccessUnion(t *testing.T) {
	pat := dictPattern(KindVal, map[string]value.Value{"name": value.NewString("x")})

	matched, bindings := Match(value.Ok(value.NewInt64(9)), pat)
	if !matched || !bindings["x"].Equal(value.NewInt64(9)) {
		t.Errorf("expected ok(9) to match and bind x=9, got matched=%v bindings=%v", matched, bindings)
	}

	matched, _ = Match(value.Fail(value.ErrorValue{ErrorType: "E"}), pat)
	if matched {
		t.Error("expected an error union not to match a val pattern")
	}
}

func TestMatchErrPatternConstrainsByType(t *testing.T) {
	pat := dictPattern(KindErr, map[string]value.Value{
		"errorType": value.NewString("RangeError"),
		"name":      value.NewString("e"),
	})

	matched, bindings := Match(value.Fail(value.ErrorValue{ErrorType: "RangeError"}), pat)
	if !matched {
		t.Fatal("expected matching error type to match")
	}
	if _, ok := bindings["e"].(value.ErrorValue); !ok {
		t.Errorf("expected e to bind the ErrorValue, got %T", bindings["e"])
	}

	matched, _ = Match(value.Fail(value.ErrorValue{ErrorType: "OtherError"}), pat)
	if matched {
		t.Error("expected a mismatched error type not to match")
	}
}

func TestMatchErrorTypePatternBindsArgumentsPositionally(t *testing.T) {
	pat := dictPattern(KindErrorType, map[string]value.Value{
		"errorType": value.NewString("RangeError"),
		"args":      listOf(value.NewString("lo"), value.NewString("hi")),
	})
	subject := value.ErrorValue{
		ErrorType: "RangeError",
		Arguments: []value.Value{value.NewInt64(0), value.NewInt64(10)},
	}
	matched, bindings := Match(subject, pat)
	if !matched {
		t.Fatal("expected error-type pattern to match")
	}
	if !bindings["lo"].Equal(value.NewInt64(0)) || !bindings["hi"].Equal(value.NewInt64(10)) {
		t.Errorf("unexpected bindings: %v", bindings)
	}
}
