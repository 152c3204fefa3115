package registry

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shmbus/shmbus/internal/engine/layout"
	"github.com/shmbus/shmbus/internal/engine/wire"
)

// List scans the services directory and decodes every static config it
// finds, for use by ServiceDiscovery/ListServices and shmbusctl.
func List(root layout.Root) ([]ServiceDetails, error) {
	entries, err := os.ReadDir(root.ServicesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ServiceListErrorInternalError
	}

	var out []ServiceDetails
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".service") {
			continue
		}
		hash := strings.TrimSuffix(name, ".service")
		data, err := os.ReadFile(filepath.Join(root.ServicesDir(), name))
		if err != nil {
			continue
		}
		var cfg StaticConfig
		if err := wire.Decode(data, "", &cfg); err != nil {
			continue
		}
		out = append(out, ServiceDetails{Name: cfg.Name, Hash: hash, Config: cfg})
	}
	return out, nil
}

// GetServiceDetails returns the details for one named, already-hashed
// service, or false if it does not exist.
func GetServiceDetails(root layout.Root, hash string) (ServiceDetails, bool) {
	data, err := os.ReadFile(filepath.Join(root.ServicesDir(), hash+".service"))
	if err != nil {
		return ServiceDetails{}, false
	}
	var cfg StaticConfig
	if err := wire.Decode(data, "", &cfg); err != nil {
		return ServiceDetails{}, false
	}
	return ServiceDetails{Name: cfg.Name, Hash: hash, Config: cfg}, true
}
