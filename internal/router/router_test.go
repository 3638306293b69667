package router

import (
	"testing"
	"time"
)

func TestParseEnvelope(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		data     string
		wantType string
		wantTS   string
		wantID   string
	}{
		{
			name:     "string timestamp and id",
			data:     `{"eventType":"new_lead","payload":{"leadName":"Acme Corp"},"timestamp":"2026-08-30T10:00:00Z","id":"ev-1"}`,
			wantType: "new_lead",
			wantTS:   "2026-08-30T10:00:00Z",
			wantID:   "ev-1",
		},
		{
			name:     "numeric timestamp and id",
			data:     `{"eventType":"invoice_paid","payload":{},"timestamp":1756548000,"id":42}`,
			wantType: "invoice_paid",
			wantTS:   "1756548000",
			wantID:   "42",
		},
		{
			name:     "type key fallback",
			data:     `{"type":"announcement","payload":{"message":"maintenance at noon"}}`,
			wantType: "announcement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.data), now)
			if err != nil {
				t.Fatalf("ParseEnvelope() error = %v", err)
			}
			if env.EventType != tt.wantType {
				t.Errorf("EventType = %q, want %q", env.EventType, tt.wantType)
			}
			if env.Timestamp != tt.wantTS {
				t.Errorf("Timestamp = %q, want %q", env.Timestamp, tt.wantTS)
			}
			if env.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", env.ID, tt.wantID)
			}
			if !env.ReceivedAt.Equal(now) {
				t.Errorf("ReceivedAt = %v, want %v", env.ReceivedAt, now)
			}
		})
	}

	if _, err := ParseEnvelope([]byte(`not json`), now); err == nil {
		t.Error("ParseEnvelope(invalid) should return an error")
	}
}

func TestPayloadString(t *testing.T) {
	p := Payload{
		"name":   "Acme Corp",
		"id":     float64(7),
		"amount": 12.5,
		"flag":   true,
		"nested": map[string]any{"a": float64(1)},
		"null":   nil,
	}

	tests := []struct {
		key  string
		want string
	}{
		{"name", "Acme Corp"},
		{"id", "7"},
		{"amount", "12.5"},
		{"flag", "true"},
		{"nested", `{"a":1}`},
		{"null", ""},
		{"missing", ""},
	}

	for _, tt := range tests {
		if got := p.String(tt.key); got != tt.want {
			t.Errorf("String(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestDispatch(t *testing.T) {
	d := NewDispatcher(nil)

	var gotName string
	table := Table{
		"new_lead": func(p Payload, env Envelope) {
			gotName = p.String("leadName")
		},
	}

	env := Envelope{EventType: "new_lead", Payload: Payload{"leadName": "Acme Corp"}}
	d.Dispatch(env, table)

	if gotName != "Acme Corp" {
		t.Errorf("handler got leadName %q, want %q", gotName, "Acme Corp")
	}

	stats := d.Stats()
	if stats.Dispatched != 1 {
		t.Errorf("Dispatched = %d, want 1", stats.Dispatched)
	}
	if stats.ByKind["new_lead"] != 1 {
		t.Errorf("ByKind[new_lead] = %d, want 1", stats.ByKind["new_lead"])
	}
}

func TestDispatchUnknownKind(t *testing.T) {
	d := NewDispatcher(nil)

	// Must not panic and must count the miss.
	d.Dispatch(Envelope{EventType: "mystery"}, Table{})

	if got := d.Stats().Unknown; got != 1 {
		t.Errorf("Unknown = %d, want 1", got)
	}
}

func TestDispatchPanicIsolation(t *testing.T) {
	d := NewDispatcher(nil)

	var secondRan bool
	table := Table{
		"bad": func(p Payload, env Envelope) {
			panic("handler bug")
		},
		"good": func(p Payload, env Envelope) {
			secondRan = true
		},
	}

	d.Dispatch(Envelope{EventType: "bad"}, table)
	d.Dispatch(Envelope{EventType: "good"}, table)

	if !secondRan {
		t.Error("dispatch after a panicking handler should still work")
	}

	stats := d.Stats()
	if stats.Panics != 1 {
		t.Errorf("Panics = %d, want 1", stats.Panics)
	}
	if stats.Dispatched != 1 {
		t.Errorf("Dispatched = %d, want 1 (panicking handler must not count)", stats.Dispatched)
	}
}
