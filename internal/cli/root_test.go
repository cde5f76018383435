package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Atliac/minitest"
	"github.com/Atliac/minitest/internal/cli"
	"github.com/Atliac/minitest/internal/config"
)

var (
	_ = minitest.Case("cli/pass", func(t *minitest.T) { t.Succeed() })
	_ = minitest.Case("cli/fail", func(t *minitest.T) { t.Fail("always") })
)

func TestMain(m *testing.M) {
	if res := minitest.Run(os.Args); res.Handled {
		os.Exit(res.ExitCode)
	}
	os.Exit(m.Run())
}

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand("1.0.0", "abc123", "2025-01-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeConfig writes a configuration whose database lives in a temp dir.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "history.db")
	cfg.Log.Level = "error"
	path := filepath.Join(dir, config.DefaultPath)
	if err := config.SaveConfig(cfg, path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	return path, dir
}

func self(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to locate test binary: %v", err)
	}
	return exe
}

// TestRootCommand tests the root command initialization
func TestRootCommand(t *testing.T) {
	t.Run("creates root command", func(t *testing.T) {
		cmd := cli.NewRootCommand("1.0.0", "abc123", "2025-01-01")

		if cmd == nil {
			t.Fatal("expected non-nil root command")
		}

		if cmd.Use != "minitest" {
			t.Errorf("expected Use 'minitest', got '%s'", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		cmd := cli.NewRootCommand("1.0.0", "abc123", "2025-01-01")

		if !strings.Contains(cmd.Version, "1.0.0") {
			t.Errorf("expected version to contain '1.0.0', got '%s'", cmd.Version)
		}
	})

	t.Run("has global flags", func(t *testing.T) {
		cmd := cli.NewRootCommand("1.0.0", "abc123", "2025-01-01")

		for _, name := range []string{"config", "verbose"} {
			if cmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("expected %s flag to exist", name)
			}
		}
	})

	for _, name := range []string{"init", "discover", "list", "run", "history"} {
		t.Run("has "+name+" subcommand", func(t *testing.T) {
			cmd := cli.NewRootCommand("1.0.0", "abc123", "2025-01-01")

			sub, _, err := cmd.Find([]string{name})
			if err != nil {
				t.Fatalf("failed to find %s command: %v", name, err)
			}
			if sub.Name() != name {
				t.Errorf("expected %s command, got '%s'", name, sub.Name())
			}
		})
	}
}

// TestInitCommand tests configuration initialization
func TestInitCommand(t *testing.T) {
	t.Run("writes a loadable config", func(t *testing.T) {
		dir := t.TempDir()

		out, err := execute(t, "init", "--dir", dir)
		if err != nil {
			t.Fatalf("init failed: %v\n%s", err, out)
		}

		cfg, err := config.LoadConfig(filepath.Join(dir, config.DefaultPath))
		if err != nil {
			t.Fatalf("written config does not load: %v", err)
		}
		if cfg.Database.Path != "minitest.db" {
			t.Errorf("unexpected database path %s", cfg.Database.Path)
		}
		if _, err := os.Stat(filepath.Join(dir, "minitest.db")); err != nil {
			t.Errorf("database was not created: %v", err)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		dir := t.TempDir()

		if _, err := execute(t, "init", "--dir", dir); err != nil {
			t.Fatalf("init failed: %v", err)
		}
		if _, err := execute(t, "init", "--dir", dir); err == nil {
			t.Error("expected second init to fail")
		}
		if _, err := execute(t, "init", "--dir", dir, "--force"); err != nil {
			t.Errorf("init --force failed: %v", err)
		}
	})
}

// TestDiscoverCommand tests CTest export
func TestDiscoverCommand(t *testing.T) {
	configPath, dir := writeConfig(t)
	output := filepath.Join(dir, "CTestTestfile.cmake")

	out, err := execute(t, "--config", configPath, "discover", "--output", output, "--marker", "cli-marker", self(t))
	if err != nil {
		t.Fatalf("discover failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Exported 2 test case(s)") {
		t.Errorf("unexpected output: %s", out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read CTest file: %v", err)
	}
	if strings.Count(string(data), "# cli-marker\n") != 2 {
		t.Errorf("expected one bracketed block, got:\n%s", data)
	}
}

// TestListCommand tests manifest output
func TestListCommand(t *testing.T) {
	configPath, dir := writeConfig(t)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "--config", configPath, "list", self(t))
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 || !strings.HasPrefix(lines[0], "0:cli/fail(") || !strings.HasPrefix(lines[1], "1:cli/pass(") {
			t.Errorf("unexpected listing:\n%s", out)
		}
	})

	t.Run("json to file", func(t *testing.T) {
		output := filepath.Join(dir, "manifest", "tests.json")
		if _, err := execute(t, "--config", configPath, "list", "--format", "json", "--output", output, self(t)); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		var doc struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("invalid json manifest: %v", err)
		}
		if doc.Count != 2 {
			t.Errorf("expected count 2, got %d", doc.Count)
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		if _, err := execute(t, "--config", configPath, "list", "--format", "xml", self(t)); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

// TestRunAndHistoryCommands tests out-of-process runs and their history
func TestRunAndHistoryCommands(t *testing.T) {
	configPath, _ := writeConfig(t)

	out, err := execute(t, "--config", configPath, "run", "--show-output", self(t))
	if err == nil {
		t.Fatal("expected run to fail because cli/fail fails")
	}
	if !strings.Contains(out, "FAIL cli/fail") || !strings.Contains(out, "PASS cli/pass") {
		t.Errorf("unexpected run output:\n%s", out)
	}
	if !strings.Contains(out, "    minitest FAIL()") {
		t.Errorf("expected indented failure output:\n%s", out)
	}
	if !strings.Contains(out, "1 passed, 1 failed") {
		t.Errorf("expected summary:\n%s", out)
	}

	out, err = execute(t, "--config", configPath, "run", "--filter", "pass$", self(t))
	if err != nil {
		t.Fatalf("filtered run failed: %v\n%s", err, out)
	}

	out, err = execute(t, "--config", configPath, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 {
		t.Errorf("expected header and two runs, got:\n%s", out)
	}

	out, err = execute(t, "--config", configPath, "history", "--test", "cli/pass")
	if err != nil {
		t.Fatalf("history --test failed: %v", err)
	}
	if strings.Count(out, "passed") != 2 {
		t.Errorf("expected two passed results, got:\n%s", out)
	}
}
