package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fischpipe/internal/pipeline"
	"fischpipe/internal/store"
)

const (
	wikiFish = `[{"name":"Cod","rarity":"Common","baseValue":10,"weight":{"min":1,"max":3},"chance":40,"location":"Moosewood"}]`
	wikiRods = `[{"name":"Flimsy Rod","price":100,"resilience":20},{"name":"Sturdy Rod","price":5000,"resilience":95}]`
	apiFish  = `{"items":[{"name":"cod","catchRate":35,"resilience":30},{"name":"Kraken","rarity":"Mythical","value":5000,"resilience":90}]}`
)

type cliEnv struct {
	dataDir    string
	configPath string
}

func setupCLIEnv(t *testing.T, adapters string) cliEnv {
	t.Helper()
	root := t.TempDir()
	env := cliEnv{
		dataDir:    filepath.Join(root, "data"),
		configPath: filepath.Join(root, "config.toml"),
	}
	content := fmt.Sprintf(`[paths]
data_dir = %q

[pipeline]
entities = ["fish", "rods"]
%s
[store]
path = %q

[logging]
level = "error"
`, env.dataDir, adapters, filepath.Join(env.dataDir, "state", "fischpipe.db"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e cliEnv) rawPath(source, kind string) string {
	return filepath.Join(e.dataDir, "raw", source, kind+".json")
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestStageCommands(t *testing.T) {
	env := setupCLIEnv(t, "")
	writeFile(t, env.rawPath("wiki", "fish"), wikiFish)
	writeFile(t, env.rawPath("fischipedia", "fish"), apiFish)
	writeFile(t, env.rawPath("wiki", "rods"), wikiRods)

	out, _, err := runCLI(t, []string{"reconcile"}, env.configPath)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireContains(t, out, "fish")
	requireContains(t, out, "rods")

	out, _, err = runCLI(t, []string{"reconcile", "fish", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("reconcile --json: %v", err)
	}
	var summaries map[string]reconcileSummary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("decode reconcile output: %v\n%s", err, out)
	}
	if got := summaries["fish"]; got.Records != 2 || got.Both != 1 || got.OnlyB != 1 {
		t.Fatalf("fish summary = %+v", got)
	}

	if _, _, err := runCLI(t, []string{"enrich"}, env.configPath); err != nil {
		t.Fatalf("enrich: %v", err)
	}

	out, _, err = runCLI(t, []string{"validate"}, env.configPath)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	requireContains(t, out, "Health:")
	requireContains(t, out, filepath.Join(env.dataDir, "reports", "health.json"))
}

func TestReconcileRejectsUnknownKind(t *testing.T) {
	env := setupCLIEnv(t, "")
	_, _, err := runCLI(t, []string{"reconcile", "boats"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown entity kind "boats"`) {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestCheckCommandReportsMissingExecutable(t *testing.T) {
	env := setupCLIEnv(t, `
[[pipeline.adapters]]
name = "wiki-fish"
entity = "fish"
source = "a"
command = ["fischpipe-missing-scraper-binary"]
`)
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "1 preflight checks failed") {
		t.Fatalf("expected one failed check, got %v", err)
	}
	requireContains(t, out, "Data directory:")
	requireContains(t, out, "fischpipe-missing-scraper-binary")
}

func TestRunAndHistoryCommands(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "wiki-fish.sh")
	writeFile(t, script, `mkdir -p "$(dirname "$FISCHPIPE_OUTPUT")"
cat > "$FISCHPIPE_OUTPUT" <<'JSON'
`+wikiFish+`
JSON
`)
	env := setupCLIEnv(t, fmt.Sprintf(`
[[pipeline.adapters]]
name = "wiki-fish"
entity = "fish"
source = "a"
command = ["sh", %q]
`, script))
	writeFile(t, env.rawPath("fischipedia", "fish"), apiFish)
	writeFile(t, env.rawPath("wiki", "rods"), wikiRods)

	out, _, err := runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var runLog pipeline.RunLog
	if err := json.Unmarshal([]byte(out), &runLog); err != nil {
		t.Fatalf("decode run log: %v\n%s", err, out)
	}
	if runLog.Errors != 0 || !runLog.Published {
		t.Fatalf("unexpected run log %+v", runLog)
	}
	if res := runLog.StepResults["wiki-fish"]; res.Status != pipeline.StatusOK {
		t.Fatalf("wiki-fish = %+v", res)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, runLog.RunID)

	out, _, err = runCLI(t, []string{"history", runLog.RunID}, env.configPath)
	if err != nil {
		t.Fatalf("history run: %v", err)
	}
	requireContains(t, out, "reconcile-fish")
	requireContains(t, out, "validate")

	if _, _, err := runCLI(t, []string{"history", "no-such-run"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown run")
	}

	st, err := store.OpenPath(filepath.Join(env.dataDir, "state", "fischpipe.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	records, err := st.Corpus(t.Context(), "fish")
	if err != nil || len(records) != 2 {
		t.Fatalf("published fish = %d, %v", len(records), err)
	}
}

func TestRunNoPublish(t *testing.T) {
	env := setupCLIEnv(t, "")
	writeFile(t, env.rawPath("wiki", "fish"), wikiFish)
	writeFile(t, env.rawPath("wiki", "rods"), wikiRods)

	out, _, err := runCLI(t, []string{"run", "--no-publish"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "Result:")
	if strings.Contains(out, "corpus published") {
		t.Fatalf("publish ran despite --no-publish:\n%s", out)
	}
}
