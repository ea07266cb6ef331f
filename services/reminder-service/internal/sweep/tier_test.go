package sweep

import "testing"

func TestTierFor_24hWindow(t *testing.T) {
	// Booked two days ahead: lead 2880 minutes.
	cases := []struct {
		minutesUntil int
		want         Tier
		ok           bool
	}{
		{1379, "", false},
		{1380, Tier24h, true},
		{1440, Tier24h, true},
		{1500, Tier24h, true},
		{1501, "", false},
	}
	for _, c := range cases {
		got, ok := TierFor(c.minutesUntil, 2880)
		if ok != c.ok || got != c.want {
			t.Fatalf("TierFor(%d, 2880) = (%q, %v), want (%q, %v)", c.minutesUntil, got, ok, c.want, c.ok)
		}
	}
}

func TestTierFor_24hRequiresLongLead(t *testing.T) {
	// In the 24h window but booked exactly one day ahead: lead must exceed
	// 1440 for the 24h tier.
	if _, ok := TierFor(1440, 1440); ok {
		t.Fatalf("lead of exactly 1440 should not qualify for the 24h tier")
	}
	if tier, ok := TierFor(1440, 1441); !ok || tier != Tier24h {
		t.Fatalf("lead 1441 should qualify, got (%q, %v)", tier, ok)
	}
}

func TestTierFor_1hWindow(t *testing.T) {
	cases := []struct {
		minutesUntil int
		ok           bool
	}{
		{54, false},
		{55, true},
		{60, true},
		{65, true},
		{66, false},
	}
	for _, c := range cases {
		tier, ok := TierFor(c.minutesUntil, 120)
		if ok != c.ok {
			t.Fatalf("TierFor(%d, 120): ok = %v, want %v", c.minutesUntil, ok, c.ok)
		}
		if ok && tier != Tier1h {
			t.Fatalf("TierFor(%d, 120) = %q, want %q", c.minutesUntil, tier, Tier1h)
		}
	}
}

func TestTierFor_1hLeadBounds(t *testing.T) {
	if _, ok := TierFor(60, 60); ok {
		t.Fatalf("lead of exactly 60 belongs to the 30min tier path, not 1h")
	}
	if tier, ok := TierFor(60, 61); !ok || tier != Tier1h {
		t.Fatalf("lead 61 should map to 1h, got (%q, %v)", tier, ok)
	}
	if tier, ok := TierFor(60, 1440); !ok || tier != Tier1h {
		t.Fatalf("lead 1440 should map to 1h, got (%q, %v)", tier, ok)
	}
}

func TestTierFor_30minWindow(t *testing.T) {
	cases := []struct {
		minutesUntil int
		ok           bool
	}{
		{24, false},
		{25, true},
		{30, true},
		{35, true},
		{36, false},
	}
	for _, c := range cases {
		tier, ok := TierFor(c.minutesUntil, 45)
		if ok != c.ok {
			t.Fatalf("TierFor(%d, 45): ok = %v, want %v", c.minutesUntil, ok, c.ok)
		}
		if ok && tier != Tier30m {
			t.Fatalf("TierFor(%d, 45) = %q, want %q", c.minutesUntil, tier, Tier30m)
		}
	}
}

// An appointment booked 45 minutes before start never enters the 24h or 1h
// windows; it only ever receives the 30-minute reminder.
func TestTierFor_ShortLeadOnlyThirtyMin(t *testing.T) {
	for minutesUntil := 0; minutesUntil <= 45; minutesUntil++ {
		tier, ok := TierFor(minutesUntil, 45)
		if ok && tier != Tier30m {
			t.Fatalf("short-lead booking got tier %q at %d minutes out", tier, minutesUntil)
		}
	}
	if tier, ok := TierFor(30, 45); !ok || tier != Tier30m {
		t.Fatalf("expected 30min tier at 30 minutes out, got (%q, %v)", tier, ok)
	}
}

func TestTierFor_30minLeadBound(t *testing.T) {
	if _, ok := TierFor(30, 61); ok {
		t.Fatalf("lead above 60 should not use the 30min tier")
	}
	if tier, ok := TierFor(30, 60); !ok || tier != Tier30m {
		t.Fatalf("lead of exactly 60 should use the 30min tier, got (%q, %v)", tier, ok)
	}
}

func TestTierValid(t *testing.T) {
	for _, tier := range Tiers {
		if !tier.Valid() {
			t.Fatalf("%q should be valid", tier)
		}
	}
	if Tier("2h").Valid() {
		t.Fatalf("unknown tier accepted")
	}
}
