package version

import "testing"

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "v1.2.0"
	if got := ClientName(); got != "tripdex/v1.2.0" {
		t.Errorf("ClientName() = %q", got)
	}
	if got, want := String(), "tripdex v1.2.0 ("+Commit+", "+Date+")"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
