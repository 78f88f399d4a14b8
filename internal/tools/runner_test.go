package tools

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/danmuck/bootctl/internal/host"
)

func TestExecRunnerMissingBinaryReports127(t *testing.T) {
	_, _, code, err := ExecRunner{}.Run("bootctl-definitely-not-a-binary")
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if code != ExitNotFound {
		t.Fatalf("expected exit 127, got %d", code)
	}
}

func TestExecRunnerStreamsAndCaptures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	var streamed bytes.Buffer
	stdout, _, code, err := ExecRunner{Stdout: &streamed}.Run("/bin/sh", "-c", "echo hi")
	if err != nil || code != 0 {
		t.Fatalf("run: code=%d err=%v", code, err)
	}
	if string(stdout) != "hi\n" || streamed.String() != "hi\n" {
		t.Fatalf("unexpected output captured=%q streamed=%q", stdout, streamed.String())
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	_, stderr, code, err := ExecRunner{}.Run("/bin/sh", "-c", "echo nope >&2; exit 3")
	if err == nil || code != 3 {
		t.Fatalf("expected exit 3, got code=%d err=%v", code, err)
	}
	if string(stderr) != "nope\n" {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
}

func TestPathLocatorFindsExecutableOnSnapshotPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "rg")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write bin: %v", err)
	}
	plain := filepath.Join(dir, "notes")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatalf("write plain: %v", err)
	}

	loc := NewPathLocator(host.ProcessContext{
		GOOS: "linux",
		Env:  host.EnvFromMap(map[string]string{"PATH": "/nonexistent:" + dir}),
	})
	got, ok := loc.Locate("rg")
	if !ok || got != bin {
		t.Fatalf("expected %q, got %q ok=%v", bin, got, ok)
	}
	if _, ok := loc.Locate("notes"); ok {
		t.Fatalf("expected non-executable file to be ignored")
	}
	if _, ok := loc.Locate("fd"); ok {
		t.Fatalf("expected missing tool to be absent")
	}
}

func TestPathLocatorWindowsPathExt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scoop.cmd"), []byte("@echo off"), 0o644); err != nil {
		t.Fatalf("write cmd: %v", err)
	}
	loc := NewPathLocator(host.ProcessContext{
		GOOS: "windows",
		Env:  host.EnvFromMap(map[string]string{"PATH": dir, "PATHEXT": ".EXE;.CMD"}),
	})
	got, ok := loc.Locate("scoop")
	if !ok || filepath.Base(got) != "scoop.cmd" {
		t.Fatalf("expected scoop.cmd, got %q ok=%v", got, ok)
	}
}
