package lockfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTwoFds(t *testing.T) (a, b *os.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lock.dat")
	a, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	b, err = os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func TestExclusiveLockBlocksSecondExclusiveAttempt(t *testing.T) {
	a, b := openTwoFds(t)

	lockA := New(int(a.Fd()))
	lockB := New(int(b.Fd()))

	require.NoError(t, lockA.Lock())
	assert.True(t, lockA.Exclusive())

	err := lockB.TryLock()
	assert.ErrorIs(t, err, ErrWouldBlock)

	require.NoError(t, lockA.Unlock())
	require.NoError(t, lockB.TryLock())
}

func TestSharedLocksDoNotConflict(t *testing.T) {
	a, b := openTwoFds(t)

	lockA := New(int(a.Fd()))
	lockB := New(int(b.Fd()))

	require.NoError(t, lockA.RLock())
	require.NoError(t, lockB.TryRLock())

	assert.NoError(t, lockA.Unlock())
	assert.NoError(t, lockB.Unlock())
}

func TestLockWithTimeoutGivesUp(t *testing.T) {
	a, b := openTwoFds(t)

	lockA := New(int(a.Fd()))
	require.NoError(t, lockA.Lock())

	lockB := New(int(b.Fd()))
	err := lockB.LockWithTimeout(50 * time.Millisecond)
	assert.ErrorIs(t, err, ErrWouldBlock)
}

func TestUnlockWithoutHoldingIsNoOp(t *testing.T) {
	a, _ := openTwoFds(t)
	lock := New(int(a.Fd()))
	assert.NoError(t, lock.Unlock())
}
