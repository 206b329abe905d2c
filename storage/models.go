package storage

import "time"

// Profile is one named wallet seed stored on disk.
// The seed is kept as raw bytes in memory and base64-encoded in the JSON
// file.
type Profile struct {
	Name      string
	Seed      []byte
	CreatedAt time.Time
}
