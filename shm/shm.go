// Package shm provides helpers for dealing with shared memory.
package shm

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Create creates an anonymous file suitable for sharing with a
// compositor. It prefers memfd_create and falls back to an unlinked
// file under /dev/shm.
func Create() (*os.File, error) {
	fd, err := unix.MemfdCreate("wlds-shm", unix.MFD_CLOEXEC)
	if err == nil {
		return os.NewFile(uintptr(fd), "wlds-shm"), nil
	}

	path := "/dev/shm/wlds-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("create shared memory file: %w", err)
	}

	return file, os.Remove(path)
}

type Mmap []byte

// MapShared maps size bytes of file into memory as a shared mapping.
func MapShared(file *os.File, size int, prot int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	cerr := sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
		mmap, err = Mmap(m), merr
	})
	if cerr != nil {
		return nil, cerr
	}

	return mmap, err
}

func (mmap Mmap) Unmap() error {
	return unix.Munmap(mmap[:cap(mmap)])
}
