// Package env provides the environment shared by the command line
// programs.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID protects the machine id when it's used as a device name.
const AppID = "dbglink"

// MachineID retrieves an ID identifying the machine, it falls back to
// the host name.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "unknown"
}
