//go:build !windows

package cmd

import "syscall"

// detachedAttr starts the daemon in its own session so it outlives the shell.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
