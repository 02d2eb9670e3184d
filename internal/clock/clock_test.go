package clock

import (
	"testing"
	"time"
)

func TestNowMetaIsDeterministicWhenPinned(t *testing.T) {
	if err := SetTimezone("UTC"); err != nil {
		t.Fatalf("saat dilimi ayarlanamadı: %v", err)
	}

	fixed := time.Date(2025, 3, 15, 9, 30, 45, 0, time.UTC)
	prev := Now
	Now = func() time.Time { return fixed }
	t.Cleanup(func() { Now = prev })

	meta := NowMeta()
	if meta.Ts != fixed.UnixMilli() {
		t.Errorf("ts: %d", meta.Ts)
	}
	if meta.Time != "15.03.2025, 09:30:45" {
		t.Errorf("okunur zaman: %q", meta.Time)
	}
}

func TestSetTimezoneRejectsUnknownName(t *testing.T) {
	if err := SetTimezone("Mars/Olympus_Mons"); err == nil {
		t.Fatal("bilinmeyen saat dilimi kabul edilmemeliydi")
	}
}
