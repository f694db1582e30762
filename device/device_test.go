package device

import (
	"runtime"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Manufacturer == "" {
		t.Error("Manufacturer should never be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.Arch != runtime.GOARCH {
		t.Errorf("Arch = %q", info.Arch)
	}
}
