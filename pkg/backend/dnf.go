// pkg/backend/dnf.go
package backend

// DnfCommands is the command template for dnf
var DnfCommands = Commands{
	Binary:         "dnf",
	InstallFlags:   []string{"install", "-y"},
	UninstallFlags: []string{"uninstall", "-y"},
	InstalledFlags: []string{"list", "installed"},
	AvailableFlags: []string{"list", "available"},
}

// DnfBackend implements the Backend interface for Fedora packages
type DnfBackend struct {
	*commandBackend
}

// NewDnfBackend creates a new DNF backend
func NewDnfBackend(config *Config) *DnfBackend {
	return &DnfBackend{
		commandBackend: newCommandBackend(string(KindDnf), DnfCommands, config),
	}
}

var dnfMarkers = []string{"/usr/lib/dnf", "/var/lib/dnf"}
