package service

import (
	"os"
	"runtime"
	"time"
)

// SystemInfo is the static process/platform report returned by the
// get_system_info tool. Pure data, always available.
type SystemInfo struct {
	AppVersion string `json:"appVersion"`
	Platform   string `json:"platform"`
	Arch       string `json:"arch"`
	GoVersion  string `json:"goVersion"`
	PID        int    `json:"pid"`
	Port       int    `json:"port"`
	StartedAt  string `json:"startedAt"`
}

// SystemInfo reports process and platform details plus the bound HTTP port.
func (s *BrokerService) SystemInfo() SystemInfo {
	return SystemInfo{
		AppVersion: Version,
		Platform:   runtime.GOOS,
		Arch:       runtime.GOARCH,
		GoVersion:  runtime.Version(),
		PID:        os.Getpid(),
		Port:       s.Port(),
		StartedAt:  s.startTime.UTC().Format(time.RFC3339),
	}
}
