package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"captioner/internal/services"
)

// CheckTranscription verifies that the transcription service answers /health.
func CheckTranscription(ctx context.Context, checker HealthChecker) Result {
	const name = "Transcription service"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := checker.CheckHealth(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if !info.Healthy() {
		return Result{Name: name, Detail: fmt.Sprintf("status %q", info.Status)}
	}
	detail := "Reachable"
	if info.Model != "" {
		detail = fmt.Sprintf("Reachable (model %s)", info.Model)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckHostSocket verifies that something is listening on the host socket.
func CheckHostSocket(ctx context.Context, path string) Result {
	const name = "Host socket"

	if path == "" {
		return Result{Name: name, Detail: "missing socket path"}
	}
	dialer := net.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (listening)", path)}
}

// CheckHostCommand verifies that the exec transport's command resolves to an
// executable.
func CheckHostCommand(command string) Result {
	const name = "Host command"

	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", command)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minMegabytes available. A zero minimum always passes.
func CheckFreeSpace(name, path string, minMegabytes int) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeMB := free >> 20
	if minMegabytes > 0 && freeMB < uint64(minMegabytes) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%d MB free, need %d MB)", path, freeMB, minMegabytes)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MB free)", path, freeMB)}
}

// FreeBytes reports the bytes available to unprivileged users on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// RequireFreeSpace returns a precondition error when CheckFreeSpace fails.
func RequireFreeSpace(path string, minMegabytes int) error {
	result := CheckFreeSpace("Free space", path, minMegabytes)
	if result.Passed {
		return nil
	}
	return services.Wrap(services.ErrPrecondition, "preflight", "free space", result.Detail, nil)
}

func summarizeError(err error) string {
	if errors.Is(err, services.ErrTimeout) {
		return "health check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (service unreachable)"
	}
	return services.Message(err)
}
