package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("stabilityd %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestGenerateTrainServe(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STABILITY_SERVER_ENABLED", "false")
	t.Setenv("STABILITY_LOGGING_LEVEL", "error")

	out := run(t, "generate", "--data-dir", dir, "--samples", "150", "--seed", "7")
	if !strings.Contains(out, "rows: 150") {
		t.Errorf("Unexpected generate output %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "env_telemetry.csv")); err != nil {
		t.Fatalf("Expected dataset file: %v", err)
	}

	out = run(t, "train", "--data-dir", dir, "--trees", "8")
	if !strings.Contains(out, "Trained stability model") {
		t.Errorf("Unexpected train output %q", out)
	}

	run(t, "serve", "--data-dir", dir, "--ticks", "2", "--interval", "1ms", "--window", "20")
}

func TestServeBootstrapsArtifacts(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STABILITY_SERVER_ENABLED", "false")
	t.Setenv("STABILITY_LOGGING_LEVEL", "error")
	t.Setenv("STABILITY_GENERATOR_SAMPLE_COUNT", "80")
	t.Setenv("STABILITY_MODEL_TREES", "5")

	run(t, "serve", "--data-dir", dir, "--ticks", "1", "--interval", "1ms")

	if _, err := os.Stat(filepath.Join(dir, "env_telemetry.csv")); err != nil {
		t.Errorf("Expected dataset to be generated: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "models")); err != nil {
		t.Errorf("Expected model store to be created: %v", err)
	}
}

func TestTrainWithoutDataset(t *testing.T) {
	t.Setenv("STABILITY_LOGGING_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"train", "--data-dir", t.TempDir()})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "stabilityd generate") {
		t.Errorf("Expected missing dataset hint, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out := run(t, "version")
	if !strings.Contains(out, "stabilityd v"+version) {
		t.Errorf("Unexpected version output %q", out)
	}
}
