// Package device reports what the bridge is running on.
package device

import (
	"os"
	"runtime"
)

// Info mirrors the manufacturer/model/SDK triple a phone reports, mapped
// onto the host.
type Info struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SDKVersion   string `json:"sdkVersion"`
	Hostname     string `json:"hostname"`
	GoVersion    string `json:"goVersion"`
	Arch         string `json:"arch"`
}

// Get collects host information. Fields that cannot be read are left empty.
func Get() Info {
	info := Info{
		Manufacturer: runtime.GOOS,
		GoVersion:    runtime.Version(),
		Arch:         runtime.GOARCH,
	}
	if host, err := os.Hostname(); err == nil {
		info.Hostname = host
	}
	fillKernel(&info)
	return info
}
