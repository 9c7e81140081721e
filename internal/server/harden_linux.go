//go:build linux

package server

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// unprivilegedID is the nobody/nogroup uid and gid on most Linux systems.
const unprivilegedID = 65534

// dropPrivileges locks the process into an empty chroot and switches to
// an unprivileged uid/gid. Must run as root; the listener socket stays
// usable because it was bound before this call.
func dropPrivileges(chrootDir string) error {
	if unix.Geteuid() != 0 {
		return fmt.Errorf("privilege dropping requires root, running as uid %d", unix.Geteuid())
	}

	if err := unix.Chroot(chrootDir); err != nil {
		return fmt.Errorf("chroot %s: %w", chrootDir, err)
	}
	if err := unix.Chdir("/"); err != nil {
		return fmt.Errorf("chdir after chroot: %w", err)
	}

	// Order matters: groups first, then gid, then uid. Once the uid is
	// gone the other two calls would fail.
	if err := unix.Setgroups([]int{unprivilegedID}); err != nil {
		return fmt.Errorf("setgroups: %w", err)
	}
	if err := unix.Setresgid(unprivilegedID, unprivilegedID, unprivilegedID); err != nil {
		return fmt.Errorf("setresgid: %w", err)
	}
	if err := unix.Setresuid(unprivilegedID, unprivilegedID, unprivilegedID); err != nil {
		return fmt.Errorf("setresuid: %w", err)
	}

	if unix.Geteuid() == 0 || unix.Getegid() == 0 {
		return errors.New("still privileged after dropping")
	}
	return nil
}
