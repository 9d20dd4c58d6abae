package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlProfileFile is the top-level YAML structure for bot profile files.
type yamlProfileFile struct {
	Bot yamlProfile `yaml:"bot"`
}

// yamlProfile is the YAML representation of a bot profile.
type yamlProfile struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Greeting   string `yaml:"greeting"`
	ThinkDelay string `yaml:"think_delay"`
	StepDelay  string `yaml:"step_delay"`
}

// Profile describes one automated player: its display name, its greeting
// line, and the pacing delays used when replaying its script.
type Profile struct {
	ID       string
	Name     string
	Greeting string
	// ThinkDelay runs once before the bot's first step of a turn.
	ThinkDelay time.Duration
	// StepDelay runs between consecutive steps of the same turn.
	StepDelay time.Duration
}

// Validate checks the profile's required fields and delay bounds.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile missing id")
	}
	if p.Name == "" {
		return fmt.Errorf("profile %s missing name", p.ID)
	}
	if p.ThinkDelay < 0 {
		return fmt.Errorf("profile %s has negative think_delay", p.ID)
	}
	if p.StepDelay < 0 {
		return fmt.Errorf("profile %s has negative step_delay", p.ID)
	}
	return nil
}

// DefaultProfile is the built-in automated player used when no profile files
// are configured.
func DefaultProfile() *Profile {
	return &Profile{
		ID:         "dicey",
		Name:       "Dicey",
		Greeting:   "Dicey joins the table and racks the dice.",
		ThinkDelay: 1200 * time.Millisecond,
		StepDelay:  900 * time.Millisecond,
	}
}

// LoadProfileFromFile reads and validates a single bot profile YAML file.
//
// Precondition: path must point to a valid YAML profile file.
// Postcondition: Returns a validated Profile or a non-nil error.
func LoadProfileFromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bot profile %s: %w", path, err)
	}
	return LoadProfileFromBytes(data)
}

// LoadProfileFromBytes parses and validates a bot profile from YAML bytes.
func LoadProfileFromBytes(data []byte) (*Profile, error) {
	var file yamlProfileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing bot profile YAML: %w", err)
	}

	profile, err := convertYAMLProfile(file.Bot)
	if err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("validating bot profile: %w", err)
	}
	return profile, nil
}

// LoadProfilesFromDir loads all YAML files in a directory as bot profiles.
//
// Postcondition: Returns all validated profiles or the first error
// encountered; an empty directory is an error.
func LoadProfilesFromDir(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading bot profile directory %s: %w", dir, err)
	}

	var profiles []*Profile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		profile, err := LoadProfileFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading bot profile from %s: %w", name, err)
		}
		profiles = append(profiles, profile)
	}

	if len(profiles) == 0 {
		return nil, fmt.Errorf("no bot profile files found in %s", dir)
	}
	return profiles, nil
}

// convertYAMLProfile converts the parsed YAML structure into the domain type.
func convertYAMLProfile(yp yamlProfile) (*Profile, error) {
	profile := &Profile{
		ID:       yp.ID,
		Name:     yp.Name,
		Greeting: yp.Greeting,
	}

	var err error
	if yp.ThinkDelay != "" {
		if profile.ThinkDelay, err = time.ParseDuration(yp.ThinkDelay); err != nil {
			return nil, fmt.Errorf("profile %s think_delay: %w", yp.ID, err)
		}
	}
	if yp.StepDelay != "" {
		if profile.StepDelay, err = time.ParseDuration(yp.StepDelay); err != nil {
			return nil, fmt.Errorf("profile %s step_delay: %w", yp.ID, err)
		}
	}
	return profile, nil
}
