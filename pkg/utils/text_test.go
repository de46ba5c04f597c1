package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("déjà vu", 4); got != "déjà..." {
		t.Errorf("multibyte: got %s", got)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("\n  \nThis Agreement is made\nbetween the parties", 40); got != "This Agreement is made" {
		t.Errorf("got %q", got)
	}
	if got := Preview("Governing law shall be Delaware", 9); got != "Governing..." {
		t.Errorf("got %q", got)
	}
	if Preview("   ", 10) != "" {
		t.Error("blank input should give empty preview")
	}
}
