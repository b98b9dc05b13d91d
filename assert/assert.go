// Package assert provides the small set of test assertions used across the
// repository. Failures are reported with t.Errorf so a test keeps running and
// reports every mismatch.
package assert

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Unexported fields are compared too, and nil and empty slices or maps are
// treated as equal.
var cmpOptions = []cmp.Option{
	cmp.Exporter(func(reflect.Type) bool { return true }),
	cmpopts.EquateEmpty(),
}

type ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string
}

// Equal fails the test when want and got differ. The failure message carries
// a cmp.Diff of the two values.
func Equal(t testing.TB, want, got any, msg string) {
	t.Helper()
	if !cmp.Equal(want, got, cmpOptions...) {
		t.Errorf("%s: values differ (-want +got):\n%s", msg, cmp.Diff(want, got, cmpOptions...))
	}
}

func NotEqual(t testing.TB, notWant, got any, msg string) {
	t.Helper()
	if cmp.Equal(notWant, got, cmpOptions...) {
		t.Errorf("%s: expected value other than %#v", msg, got)
	}
}

func True(t testing.TB, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Errorf("%s: expected true", msg)
	}
}

func False(t testing.TB, cond bool, msg string) {
	t.Helper()
	if cond {
		t.Errorf("%s: expected false", msg)
	}
}

func Nil(t testing.TB, v any, msg string) {
	t.Helper()
	if !isNil(v) {
		t.Errorf("%s: expected nil, got %#v", msg, v)
	}
}

func NotNil(t testing.TB, v any, msg string) {
	t.Helper()
	if isNil(v) {
		t.Errorf("%s: expected non-nil value", msg)
	}
}

// Len checks the length of a slice, map, string, array or channel.
func Len(t testing.TB, v any, n int, msg string) {
	t.Helper()
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array, reflect.Chan:
		if rv.Len() != n {
			t.Errorf("%s: expected length %d, got %d", msg, n, rv.Len())
		}
	default:
		t.Errorf("%s: cannot take length of %T", msg, v)
	}
}

func NoError(t testing.TB, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}

func Error(t testing.TB, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected an error", msg)
	}
}

func Contains(t testing.TB, s, substr string, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: %q does not contain %q", msg, s, substr)
	}
}

func Greater[T ordered](t testing.TB, a, b T, msg string) {
	t.Helper()
	if !(a > b) {
		t.Errorf("%s: expected %v > %v", msg, a, b)
	}
}

func GreaterOrEqual[T ordered](t testing.TB, a, b T, msg string) {
	t.Helper()
	if !(a >= b) {
		t.Errorf("%s: expected %v >= %v", msg, a, b)
	}
}

func Less[T ordered](t testing.TB, a, b T, msg string) {
	t.Helper()
	if !(a < b) {
		t.Errorf("%s: expected %v < %v", msg, a, b)
	}
}

func LessOrEqual[T ordered](t testing.TB, a, b T, msg string) {
	t.Helper()
	if !(a <= b) {
		t.Errorf("%s: expected %v <= %v", msg, a, b)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
