//go:build unix

package region

import (
	"golang.org/x/sys/unix"
)

func mmap(fd int, size int) ([]byte, error) {
	return unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func munmap(data []byte) error {
	return unix.Munmap(data)
}

func ftruncate(fd int, size int64) error {
	return unix.Ftruncate(fd, size)
}

func flock(fd int, exclusive bool) error {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	for {
		err := unix.Flock(fd, how)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

func funlock(fd int) error {
	for {
		err := unix.Flock(fd, unix.LOCK_UN)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

func msync(data []byte) error {
	return unix.Msync(data, unix.MS_ASYNC)
}
