package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)
	if info, err := os.Stat(target); err != nil || info.Size() == 0 {
		t.Fatalf("sample config missing: %v", err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite guard, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "entities: fish, rods")
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sources]\na = \"wiki\"\nb = \"wiki\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected sources error, got %v", err)
	}
}

func TestSelectKinds(t *testing.T) {
	env := setupCLIEnv(t, "")
	ctx := newCommandContext(&env.configPath, new(string))
	cfg, err := ctx.ensureConfig()
	if err != nil {
		t.Fatal(err)
	}
	kinds, err := selectKinds(cfg, []string{" Rods "})
	if err != nil || len(kinds) != 1 || kinds[0] != "rods" {
		t.Fatalf("selectKinds = %v, %v", kinds, err)
	}
	if _, err := selectKinds(cfg, []string{"boats"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
