// pkg/backend/pacman.go
package backend

// PacmanCommands is the command template for pacman
var PacmanCommands = Commands{
	Binary:         "pacman",
	InstallFlags:   []string{"-S", "--noconfirm"},
	UninstallFlags: []string{"-R", "--noconfirm"},
	InstalledFlags: []string{"-Q"},
	AvailableFlags: []string{"-Si"},
}

// PacmanBackend implements the Backend interface for Arch Linux packages
type PacmanBackend struct {
	*commandBackend
}

// NewPacmanBackend creates a new Pacman backend
func NewPacmanBackend(config *Config) *PacmanBackend {
	return &PacmanBackend{
		commandBackend: newCommandBackend(string(KindPacman), PacmanCommands, config),
	}
}

// pacmanMarkers are the paths whose presence identifies an Arch system
var pacmanMarkers = []string{"/usr/lib/pacman", "/var/lib/pacman"}
