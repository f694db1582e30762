//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package device

import "runtime"

func fillKernel(info *Info) {
	info.Model = runtime.GOARCH
}
