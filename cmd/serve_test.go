package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"serve", "--detach", "--addr", ":9000", "--detach=true"})
	want := []string{"serve", "--addr", ":9000"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filterDetachArg mismatch (-want +got):\n%s", diff)
	}
}

func TestPIDAndStateRoundTrip(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "serve.pid")
	if err := writePID(pidFile, 4242); err != nil {
		t.Fatal(err)
	}
	pid, err := readPID(pidFile)
	if err != nil || pid != 4242 {
		t.Fatalf("readPID = %d, %v", pid, err)
	}

	st := serverRuntimeState{PID: 4242, Addr: "127.0.0.1:8790", StartedAt: time.Unix(1700000000, 0).UTC(), DataSource: "builtin"}
	if err := writeState(statePath(pidFile), st); err != nil {
		t.Fatal(err)
	}
	got, err := readState(statePath(pidFile))
	if err != nil || got != st {
		t.Fatalf("readState = %+v, %v", got, err)
	}
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "serve.pid")
	if err := os.WriteFile(pidFile, []byte("not-a-pid\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readPID(pidFile); err == nil {
		t.Fatal("readPID accepted garbage")
	}
}

func TestEnsureServerNotRunningClearsStalePID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "serve.pid")
	if err := ensureServerNotRunning(pidFile); err != nil {
		t.Fatalf("missing pid file: %v", err)
	}

	// Our own pid is alive.
	if err := writePID(pidFile, os.Getpid()); err != nil {
		t.Fatal(err)
	}
	if err := ensureServerNotRunning(pidFile); err == nil {
		t.Fatal("live pid not reported as running")
	}
}

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"ghp_1234567890abcdefWXYZ": "ghp_1234...WXYZ",
		"abcdefgh":                 "abcd...",
		"abc":                      "****",
	}
	for in, want := range cases {
		if got := maskToken(in); got != want {
			t.Fatalf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}
