package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	profilesFileName = "profiles.json"
	configDirName    = "config"
)

// ErrProfileNotFound is returned when no profile with the requested name
// exists.
var ErrProfileNotFound = fmt.Errorf("profile not found")

// profileData is the on-disk representation of a Profile.
type profileData struct {
	Name      string    `json:"name"`
	Seed      string    `json:"seed"` // base64 encoded
	CreatedAt time.Time `json:"created_at"`
}

// JSONDB provides a connection to the JSON-based profile storage.
type JSONDB struct {
	path string
}

// Connect opens and initializes the JSON-based storage in the default
// config directory next to the working directory.
func Connect() (*JSONDB, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not get current working directory: %w", err)
	}
	return ConnectPath(filepath.Join(cwd, configDirName, profilesFileName))
}

// ConnectPath opens the storage at an explicit file path.
func ConnectPath(path string) (*JSONDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	db := &JSONDB{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := db.write(map[string]profileData{}); err != nil {
			return nil, fmt.Errorf("could not create profiles file: %w", err)
		}
	}

	return db, nil
}

// SaveProfile stores a named seed, overwriting any profile with the same
// name.
func (db *JSONDB) SaveProfile(name string, seed []byte) error {
	if name == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	if len(seed) == 0 {
		return fmt.Errorf("profile seed must not be empty")
	}

	profiles, err := db.read()
	if err != nil {
		return err
	}

	profiles[name] = profileData{
		Name:      name,
		Seed:      base64.StdEncoding.EncodeToString(seed),
		CreatedAt: time.Now().UTC(),
	}
	return db.write(profiles)
}

// GetProfile retrieves a stored profile by name.
func (db *JSONDB) GetProfile(name string) (*Profile, error) {
	profiles, err := db.read()
	if err != nil {
		return nil, err
	}

	data, ok := profiles[name]
	if !ok {
		return nil, ErrProfileNotFound
	}

	seed, err := base64.StdEncoding.DecodeString(data.Seed)
	if err != nil {
		return nil, fmt.Errorf("could not decode seed of profile %q: %w", name, err)
	}

	return &Profile{
		Name:      data.Name,
		Seed:      seed,
		CreatedAt: data.CreatedAt,
	}, nil
}

// ListProfiles returns the names of all stored profiles, sorted.
func (db *JSONDB) ListProfiles() ([]string, error) {
	profiles, err := db.read()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteProfile removes a stored profile by name.
func (db *JSONDB) DeleteProfile(name string) error {
	profiles, err := db.read()
	if err != nil {
		return err
	}
	if _, ok := profiles[name]; !ok {
		return ErrProfileNotFound
	}
	delete(profiles, name)
	return db.write(profiles)
}

// Close closes the JSON database connection (for interface compatibility).
// Since this is a JSON file implementation, there's no actual connection to
// close.
func (db *JSONDB) Close() error {
	return nil
}

func (db *JSONDB) read() (map[string]profileData, error) {
	data, err := os.ReadFile(db.path)
	if err != nil {
		return nil, fmt.Errorf("could not read profiles file: %w", err)
	}

	profiles := map[string]profileData{}
	if len(data) == 0 {
		return profiles, nil
	}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("could not parse profiles file: %w", err)
	}
	return profiles, nil
}

func (db *JSONDB) write(profiles map[string]profileData) error {
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal profiles: %w", err)
	}
	if err := os.WriteFile(db.path, data, 0600); err != nil {
		return fmt.Errorf("could not write profiles file: %w", err)
	}
	return nil
}
