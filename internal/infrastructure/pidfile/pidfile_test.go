package pidfile_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/infrastructure/pidfile"
)

func TestPIDFile_AcquireAndRelease(t *testing.T) {
	// Arrange
	p := pidfile.New(filepath.Join(t.TempDir(), "gangsim.pid"))

	// Act
	require.NoError(t, p.Acquire())
	owner, err := p.Owner()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), owner)
	require.NoError(t, p.Release())
	_, err = os.Stat(p.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestPIDFile_ReacquireBySameProcess(t *testing.T) {
	p := pidfile.New(filepath.Join(t.TempDir(), "gangsim.pid"))

	require.NoError(t, p.Acquire())

	assert.NoError(t, p.Acquire())
}

func TestPIDFile_ReplacesStaleFiles(t *testing.T) {
	cases := map[string]string{
		"malformed":    "not-a-pid\n",
		"dead process": "0\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			// Arrange
			path := filepath.Join(t.TempDir(), "gangsim.pid")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			p := pidfile.New(path)

			// Act
			err := p.Acquire()

			// Assert
			require.NoError(t, err)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(data))
		})
	}
}

func TestPIDFile_RefusesLiveOwner(t *testing.T) {
	// Arrange: the parent of the test binary is alive for the whole test
	path := filepath.Join(t.TempDir(), "gangsim.pid")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getppid())), 0644))
	p := pidfile.New(path)

	// Act
	err := p.Acquire()
	releaseErr := p.Release()

	// Assert
	assert.Error(t, err)
	assert.NoError(t, releaseErr)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "release must not remove a file owned by another process")
}
