// Package lockfile provides advisory, whole-file locking for a store file
// via flock(2): shared for readers, exclusive for the single writer a
// store permits at a time. It does not coordinate access within a process
// - callers still need their own mutex for that - it only keeps two
// separate processes from opening the same store file for writing at
// once.
package lockfile

import (
	"errors"
	"syscall"
	"time"
)

// ErrWouldBlock is returned by TryLock/TryRLock when the lock is already
// held elsewhere and the non-blocking attempt could not acquire it.
var ErrWouldBlock = errors.New("lockfile: lock already held")

// maxEINTRRetries bounds how many times a flock syscall is retried after
// being interrupted by a signal, so a misbehaving signal handler can't spin
// this forever.
const maxEINTRRetries = 10000

// Lock is an advisory lock held on an open file descriptor. The
// descriptor is owned by the caller; Lock only ever calls flock(2) on it,
// never opens or closes it.
type Lock struct {
	fd       int
	held     bool
	exclusiv bool
}

// New wraps fd (as returned by File.Fd()) in a Lock. fd is not duplicated;
// the caller must keep the underlying file open for as long as the Lock is
// used.
func New(fd int) *Lock {
	return &Lock{fd: fd}
}

// Lock blocks until an exclusive lock is acquired.
func (l *Lock) Lock() error {
	if err := flockRetryEINTR(l.fd, syscall.LOCK_EX); err != nil {
		return err
	}
	l.held, l.exclusiv = true, true
	return nil
}

// RLock blocks until a shared lock is acquired.
func (l *Lock) RLock() error {
	if err := flockRetryEINTR(l.fd, syscall.LOCK_SH); err != nil {
		return err
	}
	l.held, l.exclusiv = true, false
	return nil
}

// TryLock attempts to acquire an exclusive lock without blocking. It
// returns ErrWouldBlock if the lock is already held elsewhere.
func (l *Lock) TryLock() error {
	err := flockRetryEINTR(l.fd, syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrWouldBlock
		}
		return err
	}
	l.held, l.exclusiv = true, true
	return nil
}

// TryRLock attempts to acquire a shared lock without blocking.
func (l *Lock) TryRLock() error {
	err := flockRetryEINTR(l.fd, syscall.LOCK_SH|syscall.LOCK_NB)
	if err != nil {
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrWouldBlock
		}
		return err
	}
	l.held, l.exclusiv = true, false
	return nil
}

// LockWithTimeout polls for an exclusive lock, backing off between
// attempts, until it succeeds or timeout elapses.
func (l *Lock) LockWithTimeout(timeout time.Duration) error {
	return pollUntil(timeout, l.TryLock)
}

// RLockWithTimeout polls for a shared lock until it succeeds or timeout elapses.
func (l *Lock) RLockWithTimeout(timeout time.Duration) error {
	return pollUntil(timeout, l.TryRLock)
}

// Unlock releases whatever lock is currently held, if any.
func (l *Lock) Unlock() error {
	if !l.held {
		return nil
	}
	if err := flockRetryEINTR(l.fd, syscall.LOCK_UN); err != nil {
		return err
	}
	l.held = false
	return nil
}

// Exclusive reports whether the currently held lock is exclusive.
func (l *Lock) Exclusive() bool {
	return l.held && l.exclusiv
}

func flockRetryEINTR(fd int, how int) error {
	for i := 0; i < maxEINTRRetries; i++ {
		err := syscall.Flock(fd, how)
		if err == nil {
			return nil
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		return err
	}
	return syscall.EINTR
}

func pollUntil(timeout time.Duration, attempt func() error) error {
	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond
	const maxBackoff = 50 * time.Millisecond

	for {
		err := attempt()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return err
		}
		if time.Now().After(deadline) {
			return ErrWouldBlock
		}
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
