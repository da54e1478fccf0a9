package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// New creates an empty manifest for mode ("encode" or "decode").
func New(mode string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Mode:        mode,
		Files:       make(map[string]Entry),
	}
}

// ComputeStats recalculates aggregate statistics from entries.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalFiles = len(m.Files)
	for _, e := range m.Files {
		s.TotalInputBytes += e.Source.Size
		if e.Error != "" {
			s.Failed++
			continue
		}
		s.TotalOutputBytes += e.Size
		if e.Kept {
			s.KeptOriginal++
		}
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to a JSON file with stable ordering.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Read loads a manifest and rejects schema versions newer than this build.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	if m.Version > SupportedManifestVersion {
		return nil, fmt.Errorf("manifest version %d is newer than supported %d", m.Version, SupportedManifestVersion)
	}
	if m.Files == nil {
		m.Files = make(map[string]Entry)
	}
	return &m, nil
}
