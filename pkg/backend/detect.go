// pkg/backend/detect.go
package backend

import (
	"fmt"
	"os"
	"path/filepath"
)

// New creates a backend of the given kind. KindAuto probes the system.
func New(kind Kind, config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch kind {
	case KindPacman:
		return NewPacmanBackend(config), nil
	case KindApt:
		return NewAptBackend(config), nil
	case KindDnf:
		return NewDnfBackend(config), nil
	case KindAuto, "":
		return Detect(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", kind)
	}
}

// Detect returns the backend for the first package manager whose markers
// exist under config.Root. Pacman is probed first, then apt, then dnf.
func Detect(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	kind, err := DetectKind(config.Root)
	if err != nil {
		return nil, err
	}
	return New(kind, config)
}

// DetectKind reports which supported package manager is present under root.
func DetectKind(root string) (Kind, error) {
	if root == "" {
		root = "/"
	}

	switch {
	case isArchLinux(root):
		return KindPacman, nil
	case isDebian(root):
		return KindApt, nil
	case isFedora(root):
		return KindDnf, nil
	}
	return "", ErrUnknownManager
}

func isArchLinux(root string) bool {
	return anyExists(root, pacmanMarkers)
}

func isDebian(root string) bool {
	return anyExists(root, aptMarkers)
}

func isFedora(root string) bool {
	return anyExists(root, dnfMarkers)
}

func anyExists(root string, paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(root, p)); err == nil {
			return true
		}
	}
	return false
}
