package persist_test

import (
	"testing"
	"time"

	"github.com/strataflow/catalog/persist"
	"github.com/strataflow/catalog/source"
)

func TestDecide(t *testing.T) {
	now := time.Now()

	md := func(ttl, age time.Duration) source.Metadata {
		return source.Metadata{TTL: ttl, Timestamp: now.Add(-age)}
	}

	tests := []struct {
		name string
		mode persist.Mode
		md   source.Metadata
		want persist.Outcome
	}{
		{name: "always keeps regardless of ttl", mode: persist.ModeAlways, md: md(100*time.Second, 200*time.Second), want: persist.OutcomeKeep},
		{name: "always keeps inside window too", mode: persist.ModeAlways, md: md(100*time.Second, 50*time.Second), want: persist.OutcomeKeep},
		{name: "zero ttl never expires", mode: persist.ModeDefault, md: md(0, 365*24*time.Hour), want: persist.OutcomeKeep},
		{name: "inside ttl window refreshes", mode: persist.ModeDefault, md: md(100*time.Second, 50*time.Second), want: persist.OutcomeRefresh},
		{name: "past ttl kept as-is", mode: persist.ModeDefault, md: md(100*time.Second, 200*time.Second), want: persist.OutcomeKeep},
		{name: "exactly at ttl refreshes", mode: persist.ModeDefault, md: md(100*time.Second, 100*time.Second), want: persist.OutcomeRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := persist.Decide(tt.mode, tt.md, now); got != tt.want {
				t.Errorf("Decide = %v, want %v", got, tt.want)
			}
		})
	}
}
