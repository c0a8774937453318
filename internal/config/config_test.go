package config

import "testing"

func TestDefaultRules(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Rules.MusicDeleteBelow != 3 {
		t.Errorf("MusicDeleteBelow = %v, want 3", cfg.Rules.MusicDeleteBelow)
	}
	if cfg.Rules.VideoKeepAbove != 8 {
		t.Errorf("VideoKeepAbove = %v, want 8", cfg.Rules.VideoKeepAbove)
	}
	if cfg.Rules.AnyWatchedDays != 15 {
		t.Errorf("AnyWatchedDays = %v, want 15", cfg.Rules.AnyWatchedDays)
	}
	if cfg.Rules.AllWatchedDays != 7 {
		t.Errorf("AllWatchedDays = %v, want 7", cfg.Rules.AllWatchedDays)
	}

	want := []string{"episode", "movie", "track"}
	if len(cfg.Cleaner.LibraryTypes) != len(want) {
		t.Fatalf("LibraryTypes = %v, want %v", cfg.Cleaner.LibraryTypes, want)
	}
	for i, lt := range want {
		if cfg.Cleaner.LibraryTypes[i] != lt {
			t.Errorf("LibraryTypes[%d] = %q, want %q", i, cfg.Cleaner.LibraryTypes[i], lt)
		}
	}

	if cfg.Cleaner.DryRun {
		t.Error("DryRun defaults to true")
	}
	if !cfg.Journal.Enabled {
		t.Error("journal disabled by default")
	}
}

func TestIsConfigured(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsConfigured() {
		t.Error("empty config reports configured")
	}

	cfg.Server.URL = "http://localhost:32400"
	if cfg.IsConfigured() {
		t.Error("config without token reports configured")
	}

	cfg.Server.Token = "secret"
	if !cfg.IsConfigured() {
		t.Error("config with url and token reports unconfigured")
	}
}
