package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	testDaemonReadyTimeout = 15 * time.Second
	testSessionTimeout     = 90 * time.Second
	testCheckInTimeout     = 30 * time.Second
)

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Locate the binary, VIGIL_BIN_DIR or ../../bin
	binDir := os.Getenv("VIGIL_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join("..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	cliPath := filepath.Join(binDir, "vigil")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s. Build it first with: go build -o bin/vigil ./cmd/vigil", cliPath)
	}

	tempDir := t.TempDir()
	t.Logf("Running test in temp dir: %s", tempDir)
	listen := freeAddr(t)

	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "HOME=") && !strings.HasPrefix(e, "VIGIL_") {
			env = append(env, e)
		}
	}
	env = append(env,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("VIGIL_DAEMON_LISTEN=%s", listen),
		"VIGIL_DAEMON_POLL_INTERVAL=1s",
	)

	// 2. Initialize and configure
	t.Log("Initializing CLI...")
	runCmd(t, cliPath, env, "init")
	runCmd(t, cliPath, env, "settings", "--require-start-tap", "--live-activities")
	runCmd(t, cliPath, env, "permissions", "--notifications=authorized")
	runCmd(t, cliPath, env, "prayer", "add", "Compline")

	// 3. Start the daemon
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	daemonCmd := exec.CommandContext(ctx, cliPath, "daemon")
	daemonCmd.Env = env
	var daemonOut bytes.Buffer
	daemonCmd.Stdout = &daemonOut
	daemonCmd.Stderr = &daemonOut
	if err := daemonCmd.Start(); err != nil {
		t.Fatalf("Failed to start daemon: %v", err)
	}
	defer func() {
		cancel()
		_ = daemonCmd.Wait()
		if t.Failed() {
			t.Logf("Daemon output: %s", daemonOut.String())
		}
	}()
	waitFor(t, "daemon to listen", testDaemonReadyTimeout, func() bool {
		conn, err := net.DialTimeout("tcp", listen, 200*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	})

	// 4. Add an alarm for the next minute and wait for its session
	at := time.Now().Add(time.Minute).Format("15:04")
	t.Logf("Scheduling alarm for %s", at)
	runCmd(t, cliPath, env, "alarm", "add", at, "--prayer", "Compline", "--duration", "1", "--no-reminder")

	var activityID string
	waitFor(t, "session to start", testSessionTimeout, func() bool {
		out := runCmd(t, cliPath, env, "activity", "list")
		for _, line := range strings.Split(out, "\n") {
			if strings.Contains(line, "Compline") && strings.Contains(line, "ready") {
				activityID = strings.Fields(line)[0]
				return true
			}
		}
		return false
	})
	t.Logf("Session surface %s is ready", activityID)

	// 5. Start the countdown and check in through the daemon
	runCmd(t, cliPath, env, "activity", "start", activityID)
	runCmd(t, cliPath, env, "activity", "check-in", activityID)

	waitFor(t, "check-in to be saved", testCheckInTimeout, func() bool {
		var report struct {
			Summary struct {
				Total int `json:"total"`
			} `json:"summary"`
		}
		out := runCmd(t, cliPath, env, "stats", "--prayer", "Compline", "--json")
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("stats output is not JSON: %v\n%s", err, out)
		}
		return report.Summary.Total == 1
	})
	t.Log("Verified alarm, session and check-in flow!")
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s%s", path, args, err, stdout.String(), stderr.String())
	}
	return stdout.String()
}

func waitFor(t *testing.T, what string, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}
