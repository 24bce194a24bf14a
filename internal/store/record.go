package store

import "time"

// Record is the durable unit of installed state: one version's binary plus
// its metadata. Records are written as a whole and never partially mutated;
// a re-install of the same version replaces the record entirely.
type Record struct {
	Version      string    `json:"version"`
	TagName      string    `json:"tag_name"`
	ReleaseDate  time.Time `json:"release_date"`
	DownloadURL  string    `json:"download_url"`
	Checksum     string    `json:"checksum,omitempty"`
	InstalledAt  time.Time `json:"installed_at"`
	InstallPath  string    `json:"install_path"`
	ReleaseNotes string    `json:"release_notes,omitempty"`

	// BinaryPath is the stored binary inside the version directory. Filled
	// on load, not persisted.
	BinaryPath string `json:"-"`
}
