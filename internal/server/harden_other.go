//go:build !linux

package server

import "errors"

// dropPrivileges is only implemented on Linux. Other platforms must run
// without the --harden flag.
func dropPrivileges(string) error {
	return errors.New("privilege dropping is only supported on linux")
}
