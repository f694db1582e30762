//go:build linux || darwin || freebsd || netbsd || openbsd

package device

import "golang.org/x/sys/unix"

func fillKernel(info *Info) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return
	}
	info.Manufacturer = unix.ByteSliceToString(u.Sysname[:])
	info.Model = unix.ByteSliceToString(u.Machine[:])
	info.SDKVersion = unix.ByteSliceToString(u.Release[:])
}
