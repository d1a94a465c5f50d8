package ratelimit

import "testing"

func TestAllowRequestWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, 100, true)

	for i := 0; i < 3; i++ {
		if !rl.AllowRequest("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.AllowRequest("10.0.0.1") {
		t.Error("fourth request within the same minute should be rejected")
	}
}

func TestPerClientIsolation(t *testing.T) {
	rl := NewRateLimiter(2, 100, true)

	rl.AllowRequest("10.0.0.1")
	rl.AllowRequest("10.0.0.1")
	if rl.AllowRequest("10.0.0.1") {
		t.Fatal("first client should be over its minute budget")
	}

	// An exhausted client must not throttle anyone else
	if !rl.AllowRequest("10.0.0.2") {
		t.Error("second client should have its own window")
	}
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	rl := NewRateLimiter(1, 1, false)

	for i := 0; i < 10; i++ {
		if !rl.AllowRequest("10.0.0.1") {
			t.Fatal("disabled limiter must never reject")
		}
	}
}

func TestHourWindowCaps(t *testing.T) {
	rl := NewRateLimiter(100, 2, true)

	rl.AllowRequest("10.0.0.1")
	rl.AllowRequest("10.0.0.1")
	if rl.AllowRequest("10.0.0.1") {
		t.Error("hour limit should reject the third request")
	}
}

func TestResetClearsWindows(t *testing.T) {
	rl := NewRateLimiter(1, 10, true)

	rl.AllowRequest("10.0.0.1")
	if rl.AllowRequest("10.0.0.1") {
		t.Fatal("second request should be rejected before reset")
	}

	rl.Reset()
	if !rl.AllowRequest("10.0.0.1") {
		t.Error("request after reset should be allowed")
	}
}

func TestGetStats(t *testing.T) {
	rl := NewRateLimiter(5, 50, true)

	rl.AllowRequest("10.0.0.1")
	rl.AllowRequest("10.0.0.1")
	rl.AllowRequest("10.0.0.2")

	stats := rl.GetStats()
	if !stats.Enabled {
		t.Fatal("stats should report enabled")
	}
	if stats.ActiveClients != 2 {
		t.Errorf("expected 2 active clients, got %d", stats.ActiveClients)
	}
	if stats.RequestsLastMinute != 3 || stats.RequestsLastHour != 3 {
		t.Errorf("unexpected request totals: %+v", stats)
	}
	if stats.LimitPerMinute != 5 || stats.LimitPerHour != 50 {
		t.Errorf("unexpected limits: %+v", stats)
	}
}
