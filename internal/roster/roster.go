// Package roster is the roster/authorization collaborator: it supplies the
// spot's members and their admin flags. The stores trust this input for
// gating setPaid and never verify identity themselves.
package roster

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/brocode/spot/internal/model"
)

// Roster answers who the members are and who may administer payments.
type Roster interface {
	Members() []model.Member
	IsAdmin(memberID string) bool
}

// Profile is the client profile loaded from the TOML config file: the
// local member's identity, the upcoming spot, and the member roster.
type Profile struct {
	MemberID string         `toml:"member_id"`
	Spot     model.Spot     `toml:"spot"`
	Roster   []model.Member `toml:"members"`
}

// Members returns the roster entries.
func (p *Profile) Members() []model.Member {
	return p.Roster
}

// IsAdmin reports whether the given member carries the admin flag.
func (p *Profile) IsAdmin(memberID string) bool {
	for _, m := range p.Roster {
		if m.ID == memberID {
			return m.Admin
		}
	}
	return false
}

// DefaultPath returns the default profile location, creating the directory
// if needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "spot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the profile from path. A missing file yields an empty profile
// rather than an error, matching the stores' empty-state fallback.
func Load(path string) (*Profile, error) {
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if os.IsNotExist(err) {
			return &Profile{}, nil
		}
		return nil, err
	}
	return &p, nil
}

// Save writes the profile to path.
func Save(path string, p *Profile) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(p)
}
