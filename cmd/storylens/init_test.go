package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storylens/storylens/internal/config"
)

func TestInitWritesStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	prevCfg, prevSite := cfgFile, siteFlag
	cfgFile, siteFlag = path, "https://stories.example.com"
	t.Cleanup(func() { cfgFile, siteFlag = prevCfg, prevSite })

	var out bytes.Buffer
	initCmd.SetOut(&out)
	t.Cleanup(func() { initCmd.SetOut(nil) })

	if err := runInitCommand(initCmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), "Configuration created: "+path) {
		t.Fatalf("output = %q", out.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Site.URL != "https://stories.example.com" {
		t.Fatalf("written site url = %q", cfg.Site.URL)
	}

	out.Reset()
	if err := runInitCommand(initCmd, nil); err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Fatalf("second run should refuse to overwrite, got %q", out.String())
	}
}
