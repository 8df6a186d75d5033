package cache

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata describes the provenance of one cache entry. One record exists
// per cache key; a re-fetch of the same key overwrites it. It is written
// only after a fetch fully completes, so the presence of a metadata file
// is the commit marker for its checkout.
type Metadata struct {
	URL        string `json:"url"`
	Reference  string `json:"reference,omitempty"`
	SkillName  string `json:"skill_name"`
	SourceType string `json:"source_type"`
}

// LoadMetadata reads the metadata record at path. A missing file returns
// (nil, nil): absence means the cached content was never committed.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading metadata %s: %v", ErrCache, path, err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing metadata %s: %v", ErrCache, path, err)
	}
	return &m, nil
}

// Save writes the record to path atomically (tmp+rename), so a crash
// mid-write never leaves a partial metadata file.
func (m *Metadata) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshaling metadata: %v", ErrCache, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing metadata %s: %v", ErrCache, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: committing metadata %s: %v", ErrCache, path, err)
	}
	return nil
}
