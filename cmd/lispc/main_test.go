package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rahularya50/lispc/internal/diag"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.lisp")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCompileMainReturnsARenderedSnapshot(t *testing.T) {
	path := writeSource(t, "(func (main a) (return a))")
	snapshot, err := compileMain(path, false)
	if err != nil {
		t.Fatalf("compileMain: %v", err)
	}
	if snapshot.Name != "main" {
		t.Errorf("snapshot.Name = %q, want %q", snapshot.Name, "main")
	}
	if len(snapshot.Blocks) == 0 {
		t.Error("expected at least one rendered block")
	}
}

func TestCompileMainPropagatesParseErrors(t *testing.T) {
	path := writeSource(t, "(func (main a) (return a)")
	if _, err := compileMain(path, false); err == nil {
		t.Fatal("expected an error for an unterminated form")
	}
}

func TestCompileMainPropagatesMissingFile(t *testing.T) {
	if _, err := compileMain(filepath.Join(t.TempDir(), "missing.lisp"), false); err == nil {
		t.Fatal("expected an error reading a nonexistent source file")
	}
}

func TestClassifyMapsEveryDiagnosticKind(t *testing.T) {
	cases := []struct {
		err      error
		wantKind string
		wantCode int
	}{
		{diag.NewParseError("bad token"), "parse", 1},
		{diag.NewSemanticError("undeclared variable"), "semantic", 2},
		{diag.NewUnimplementedOperation("multiplication"), "unimplemented", 4},
		{errors.New("disk full"), "io", 5},
	}
	for _, tc := range cases {
		kind, code := classify(tc.err)
		if kind != tc.wantKind || code != tc.wantCode {
			t.Errorf("classify(%v) = (%q, %d), want (%q, %d)", tc.err, kind, code, tc.wantKind, tc.wantCode)
		}
	}
}

// diagnoser writing to a plain file (never a terminal) must never emit
// ANSI color codes.
func TestDiagnoserSkipsColorForNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	diagnoser(f)("parse", "unexpected token")

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Errorf("diagnoser output %q contains an ANSI escape on a non-terminal", data)
	}
	if !strings.Contains(string(data), "parse: unexpected token") {
		t.Errorf("diagnoser output = %q, want it to contain %q", data, "parse: unexpected token")
	}
}

func TestRunRequiresTarget(t *testing.T) {
	stdout, stderr := tempOutputs(t)
	code := run([]string{}, stdout, stderr)
	if code != 5 {
		t.Errorf("run with no -target returned %d, want 5", code)
	}
}

func TestRunRejectsProfileSummaryWithoutCPUProfile(t *testing.T) {
	path := writeSource(t, "(func (main) 1)")
	stdout, stderr := tempOutputs(t)
	code := run([]string{"-target", path, "-profile-summary"}, stdout, stderr)
	if code != 5 {
		t.Errorf("run with -profile-summary but no -cpuprofile returned %d, want 5", code)
	}
}

func TestRunEndToEndWritesMicrocodeText(t *testing.T) {
	path := writeSource(t, "(func (main) 1)")
	stdout, stderr := tempOutputs(t)
	code := run([]string{"-target", path}, stdout, stderr)
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
	if _, err := stdout.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	data, err := io.ReadAll(stdout)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !strings.Contains(string(data), "function main:") {
		t.Errorf("stdout = %q, want a rendered function header", data)
	}
}

func TestRunReportsSemanticErrorsWithExitCode2(t *testing.T) {
	path := writeSource(t, "(func (main) (return undeclared))")
	stdout, stderr := tempOutputs(t)
	code := run([]string{"-target", path}, stdout, stderr)
	if code != 2 {
		t.Errorf("run on an undeclared-variable program returned %d, want 2", code)
	}
}

func tempOutputs(t *testing.T) (stdout, stderr *os.File) {
	t.Helper()
	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "stdout"))
	if err != nil {
		t.Fatalf("Create stdout: %v", err)
	}
	errf, err := os.Create(filepath.Join(dir, "stderr"))
	if err != nil {
		t.Fatalf("Create stderr: %v", err)
	}
	t.Cleanup(func() {
		out.Close()
		errf.Close()
	})
	return out, errf
}
