package idgen

import (
	"regexp"
	"testing"
)

func TestNotification_Length(t *testing.T) {
	id, err := Notification()
	if err != nil {
		t.Fatalf("Notification() error: %v", err)
	}
	wantLen := len(NotificationPrefix) + Length
	if len(id) != wantLen {
		t.Errorf("Notification() length = %d, want %d (id=%q)", len(id), wantLen, id)
	}
}

func TestNotification_Prefix(t *testing.T) {
	id, err := Notification()
	if err != nil {
		t.Fatalf("Notification() error: %v", err)
	}
	if id[:len(NotificationPrefix)] != NotificationPrefix {
		t.Errorf("Notification() = %q, want prefix %q", id, NotificationPrefix)
	}
}

func TestNotification_Charset(t *testing.T) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(NotificationPrefix) + `[a-zA-Z0-9]+$`)
	for i := 0; i < 100; i++ {
		id, err := Notification()
		if err != nil {
			t.Fatalf("Notification() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("Notification() = %q, does not match expected charset pattern", id)
		}
	}
}

func TestNotification_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := Notification()
		if err != nil {
			t.Fatalf("Notification() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	prefix := "test-"
	id, err := GenerateWithPrefix(prefix)
	if err != nil {
		t.Fatalf("GenerateWithPrefix(%q) error: %v", prefix, err)
	}

	if id[:len(prefix)] != prefix {
		t.Errorf("GenerateWithPrefix(%q) = %q, want prefix %q", prefix, id, prefix)
	}

	wantLen := len(prefix) + Length
	if len(id) != wantLen {
		t.Errorf("GenerateWithPrefix(%q) length = %d, want %d (id=%q)", prefix, len(id), wantLen, id)
	}
}
