// pkg/backend/apt.go
package backend

// AptCommands is the command template for apt
var AptCommands = Commands{
	Binary:         "apt",
	InstallFlags:   []string{"install", "-y"},
	UninstallFlags: []string{"remove", "-y"},
	InstalledFlags: []string{"list", "--installed"},
	AvailableFlags: []string{"list"},
}

// AptBackend implements the Backend interface for Debian and Ubuntu packages
type AptBackend struct {
	*commandBackend
}

// NewAptBackend creates a new APT backend
func NewAptBackend(config *Config) *AptBackend {
	return &AptBackend{
		commandBackend: newCommandBackend(string(KindApt), AptCommands, config),
	}
}

var aptMarkers = []string{"/usr/lib/apt", "/var/lib/apt"}
