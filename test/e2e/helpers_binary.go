//go:build e2e

package e2e

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/fundnetwork/memberportal/pkg/portalclient"
)

// portalServer manages a running memberportal server process.
type portalServer struct {
	cmd     *exec.Cmd
	dataDir string
	dbPath  string
	address string
	logFile string
}

// startPortal launches the memberportal binary and waits for it to become
// healthy. The server is configured entirely via environment variables.
func startPortal(t *testing.T) *portalServer {
	t.Helper()
	requireMemberportal(t)

	dataDir := t.TempDir()
	port := freePort(t)
	s := &portalServer{
		dataDir: dataDir,
		dbPath:  filepath.Join(dataDir, "portal.db"),
		address: fmt.Sprintf("127.0.0.1:%d", port),
		logFile: filepath.Join(dataDir, "memberportal.log"),
	}

	s.cmd = exec.Command(memberportalBin)
	s.cmd.Env = append(s.env(),
		fmt.Sprintf("MEMBERPORTAL_PORT=%d", port),
		"MEMBERPORTAL_ADMIN_KEY="+adminKey,
		"MEMBERPORTAL_MEMBER_KEYS="+memberKey,
	)

	lf, err := os.Create(s.logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	s.cmd.Stdout = lf
	s.cmd.Stderr = lf

	if err := s.cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start memberportal: %v", err)
	}
	t.Cleanup(func() {
		s.stop()
		lf.Close()
		if t.Failed() {
			if data, err := os.ReadFile(s.logFile); err == nil {
				t.Logf("server log:\n%s", data)
			}
		}
	})

	if err := s.waitHealthy(10 * time.Second); err != nil {
		t.Fatalf("memberportal not healthy: %v", err)
	}
	return s
}

// env is the environment shared by the server and CLI invocations.
func (s *portalServer) env() []string {
	return append(os.Environ(),
		"MEMBERPORTAL_DB_PATH="+s.dbPath,
		"MEMBERPORTAL_CONFIG_PATH="+filepath.Join(s.dataDir, "nonexistent.yaml"),
		"MEMBERPORTAL_LOG_FORMAT=text",
	)
}

func (s *portalServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
}

func (s *portalServer) baseURL() string {
	return "http://" + s.address
}

func (s *portalServer) client(t *testing.T, key string) *portalclient.Client {
	t.Helper()
	return newClient(t, s.baseURL(), key)
}

// cli runs a memberportal subcommand against the server's database.
func (s *portalServer) cli(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(memberportalBin, args...)
	cmd.Env = s.env()
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("memberportal %v: %v\noutput: %s", args, err, out)
	}
	return string(out)
}

func (s *portalServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := s.baseURL() + "/api/v1/health"

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("memberportal not healthy after %s", timeout)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
