package manifest

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ID             string `toml:"id"`
	Name           string `toml:"name,omitempty"`
	InitData       string `toml:"init_data"`
	UserAgent      string `toml:"user_agent,omitempty"`
	DevicePlatform string `toml:"device_platform,omitempty"`
	Proxy          string `toml:"proxy,omitempty"`
}
