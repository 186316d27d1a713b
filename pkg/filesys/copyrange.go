package filesys

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// CopyFileRange copies n bytes from srcOff in src to dstOff in dst using
// the copy_file_range(2) syscall, which moves data entirely within the
// kernel (no userspace buffer, and block-sharing/copy-on-write on
// filesystems that support it). It falls back to chunked Read/Write via
// chunkSize when the syscall isn't available, matching the portable
// behavior the store's aux-index split/merge relies on regardless of
// filesystem.
func CopyFileRange(dst, src *os.File, dstOff, srcOff int64, n int, chunkSize int) (int, error) {
	remaining := n
	so, do := srcOff, dstOff

	for remaining > 0 {
		want := remaining
		copied, err := unix.CopyFileRange(int(src.Fd()), &so, int(dst.Fd()), &do, want, 0)
		if err != nil {
			if err == unix.ENOSYS || err == unix.EXDEV {
				return copyFileRangeFallback(dst, src, dstOff, srcOff, n, chunkSize)
			}
			return n - remaining, err
		}
		if copied == 0 {
			break
		}
		remaining -= copied
	}

	return n - remaining, nil
}

func copyFileRangeFallback(dst, src *os.File, dstOff, srcOff int64, n int, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}

	buf := make([]byte, chunkSize)
	written := 0
	so, do := srcOff, dstOff

	for written < n {
		want := chunkSize
		if remaining := n - written; remaining < want {
			want = remaining
		}

		rn, err := src.ReadAt(buf[:want], so)
		if err != nil && err != io.EOF {
			return written, err
		}
		if rn == 0 {
			break
		}

		wn, err := dst.WriteAt(buf[:rn], do)
		if err != nil {
			return written, err
		}

		written += wn
		so += int64(wn)
		do += int64(wn)
	}

	return written, nil
}
