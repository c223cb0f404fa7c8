package process_test

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/tandem/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellRunner uses a POSIX shell reading its script from stdin, so the runner
// can be exercised without a Python installation.
func shellRunner(t *testing.T, opts ...process.RunnerOption) *process.Runner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
	return process.NewRunner(append([]process.RunnerOption{process.WithInterpreter("sh", "-s")}, opts...)...)
}

func TestRunner_Success(t *testing.T) {
	r := shellRunner(t)

	res, err := r.Execute(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, "hello\n", res.Output)
}

func TestRunner_Env(t *testing.T) {
	r := shellRunner(t, process.WithEnv("TANDEM_TEST", "42"))

	res, err := r.Execute(context.Background(), `echo "$TANDEM_TEST $MPLBACKEND"`)
	require.NoError(t, err)
	assert.Equal(t, "42 Agg\n", res.Output)
}

func TestRunner_NonZeroExit(t *testing.T) {
	r := shellRunner(t)

	res, err := r.Execute(context.Background(), "echo partial; echo 'Something went terribly wrong' >&2; exit 123")
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, 123, res.ExitCode)
	assert.Equal(t, "partial\n", res.Output)
	assert.Equal(t, "Something went terribly wrong", res.Error)
}

func TestRunner_Timeout(t *testing.T) {
	r := shellRunner(t, process.WithTimeout(200*time.Millisecond), process.WithGracePeriod(500*time.Millisecond))

	start := time.Now()
	res, err := r.Execute(context.Background(), "sleep 5")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 3*time.Second)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "deadline exceeded")
}

func TestRunner_MissingInterpreter(t *testing.T) {
	r := process.NewRunner(process.WithInterpreter("definitely-not-an-interpreter-xyz"))

	_, err := r.Execute(context.Background(), "print(1)")
	assert.Error(t, err)
}

func TestRunner_Python(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not found in PATH")
	}
	r := process.NewRunner()

	res, err := r.Execute(context.Background(), "print(sum([1, 2, 3]))")
	require.NoError(t, err)
	assert.Equal(t, "6\n", res.Output)

	res, err = r.Execute(context.Background(), "raise ValueError('bad data')")
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "ValueError: bad data")
}
