package e2e

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdecomp/jdecomp/internal/classfile/classfiletest"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	input := filepath.Join(home, "classes", "com", "example", "Hello.class")
	require.NoError(t, os.MkdirAll(filepath.Dir(input), 0o755))
	require.NoError(t, os.WriteFile(input, classfiletest.Hello(), 0o644))
	output := filepath.Join(home, "Hello.java")

	_, stderr, err := runJdecomp(t, binaryPath, home, input)
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "want non-zero exit, got %v", err)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, stderr, "usage: jdecomp <class-file-in> <java-file-out>")

	stdout, stderr, err := runJdecomp(t, binaryPath, home, input, output)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, 1, strings.Count(stdout, "Wrote "+output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `System.out.println("Hello");`)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "jdecomp-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/jdecomp")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build jdecomp binary: %s", string(output))
	return binaryPath
}

func runJdecomp(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "NO_COLOR=1")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
