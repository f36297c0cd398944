package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version     int                `toml:"version"`
	Transcripts []transcriptSchema `toml:"transcripts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported history schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// Transcripts are stored oldest first so appends never reorder the file.
type transcriptSchema struct {
	ID        string   `toml:"id"`
	Question  string   `toml:"question"`
	Mode      string   `toml:"mode"`
	Answer    string   `toml:"answer"`
	Sources   []string `toml:"sources,omitempty"`
	FollowUps []string `toml:"follow_ups,omitempty"`
	Outcome   string   `toml:"outcome"`
	AskedAt   string   `toml:"asked_at"`
}
