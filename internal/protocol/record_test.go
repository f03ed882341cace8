package protocol

import (
	"strings"
	"testing"
)

func TestParseTypeOnly(t *testing.T) {
	rec, err := Parse("QUEUE_FULL")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rec.Type != "QUEUE_FULL" {
		t.Errorf("Expected type QUEUE_FULL, got %q", rec.Type)
	}
	if len(rec.Fields) != 0 {
		t.Errorf("Expected no fields, got %v", rec.Fields)
	}
}

func TestParseFields(t *testing.T) {
	rec, err := Parse("LOGIN|alice|pw1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rec.Type != "LOGIN" {
		t.Errorf("Expected type LOGIN, got %q", rec.Type)
	}
	if len(rec.Fields) != 2 || rec.Fields[0] != "alice" || rec.Fields[1] != "pw1" {
		t.Errorf("Expected fields [alice pw1], got %v", rec.Fields)
	}
}

func TestParseKeepsEmptyFields(t *testing.T) {
	rec, err := Parse("CHAT|")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rec.Fields) != 1 || rec.Fields[0] != "" {
		t.Errorf("Expected one empty field, got %v", rec.Fields)
	}
}

func TestParseEmptyType(t *testing.T) {
	if _, err := Parse(""); err != ErrEmptyType {
		t.Errorf("Expected ErrEmptyType for empty line, got %v", err)
	}
	if _, err := Parse("|field"); err != ErrEmptyType {
		t.Errorf("Expected ErrEmptyType for leading separator, got %v", err)
	}
}

func TestParseUnknownTypePassesThrough(t *testing.T) {
	rec, err := Parse("NO_SUCH_TYPE|a|b|c")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rec.Type != "NO_SUCH_TYPE" {
		t.Errorf("Unknown type must propagate unchanged, got %q", rec.Type)
	}
}

func TestStringRoundTrip(t *testing.T) {
	lines := []string{
		"CANCEL_OK",
		"LOGIN_OK|abc123",
		"TURN_UPDATE|0|0|0|0",
		"CHAT|2|0|SYSTEM|game on",
		"SIGNUP|alice||Alice", // empty password survives
	}
	for _, line := range lines {
		rec, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", line, err)
		}
		if got := rec.String(); got != line {
			t.Errorf("Round trip mismatch: %q -> %q", line, got)
		}
	}
}

func TestAppendWire(t *testing.T) {
	rec := New(TypeTurnUpdate, "1", "0", "3", "2")
	got := string(rec.AppendWire(nil))
	want := "TURN_UPDATE|1|0|3|2\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	bare := New(TypeQueueFull)
	if got := string(bare.AppendWire(nil)); got != "QUEUE_FULL\n" {
		t.Errorf("Expected bare record with delimiter, got %q", got)
	}
}

func TestField(t *testing.T) {
	rec := New(TypeLogin, "alice", "pw1")
	if rec.Field(0) != "alice" || rec.Field(1) != "pw1" {
		t.Errorf("Field lookup broken: %v", rec.Fields)
	}
	if rec.Field(2) != "" || rec.Field(-1) != "" {
		t.Error("Out-of-range field must be empty")
	}
}

func TestTailRejoinsSeparators(t *testing.T) {
	rec, err := Parse("CHAT|hello|world|again")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := rec.Tail(0); got != "hello|world|again" {
		t.Errorf("Expected tail to restore separators, got %q", got)
	}
	if got := rec.Tail(1); got != "world|again" {
		t.Errorf("Expected tail from offset, got %q", got)
	}
	if got := rec.Tail(3); got != "" {
		t.Errorf("Expected empty tail past the end, got %q", got)
	}
}

func TestParseRejectsNothingElse(t *testing.T) {
	// Everything with a non-empty type is structurally valid.
	long := "X|" + strings.Repeat("a|", 100)
	if _, err := Parse(long); err != nil {
		t.Errorf("Expected long record to parse, got %v", err)
	}
}
