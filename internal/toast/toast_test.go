package toast

import (
	"testing"
	"time"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	var teed []Shown
	r.Tee(func(s Shown) { teed = append(teed, s) })

	r.Show("New lead: Acme Corp", Options{Severity: SeveritySuccess, Duration: 5 * time.Second})
	r.Show("Report ready", Options{Severity: SeverityInfo})

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	all := r.All()
	if all[0].Message != "New lead: Acme Corp" {
		t.Errorf("first message = %q", all[0].Message)
	}
	if all[0].ID == "" || all[0].ID == all[1].ID {
		t.Error("each recorded toast needs a unique id")
	}
	if all[0].At.IsZero() {
		t.Error("At should be stamped")
	}

	if len(teed) != 2 {
		t.Errorf("tee received %d toasts, want 2", len(teed))
	}

	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", r.Len())
	}
}

func TestDefaultIcon(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{SeverityInfo, "bell"},
		{SeveritySuccess, "check-circle"},
		{SeverityWarning, "alert-triangle"},
		{SeverityError, "alert-octagon"},
		{Severity("other"), "bell"},
	}
	for _, tt := range tests {
		if got := DefaultIcon(tt.sev); got != tt.want {
			t.Errorf("DefaultIcon(%q) = %q, want %q", tt.sev, got, tt.want)
		}
	}
}
