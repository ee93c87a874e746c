package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/mgit/pkg/compress"
	"github.com/odvcencio/mgit/pkg/merge"
	"github.com/odvcencio/mgit/pkg/vfs"
)

// Config stores repository-local settings read from .mgit/config.toml.
type Config struct {
	Core  CoreConfig  `toml:"core"`
	User  UserConfig  `toml:"user"`
	Merge MergeConfig `toml:"merge"`
}

type CoreConfig struct {
	// Compression names the codec loose objects are stored with. Changing it
	// after objects exist makes them unreadable.
	Compression string `toml:"compression"`
}

type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

type MergeConfig struct {
	FastForward string `toml:"fastforward"`
	Conflict    string `toml:"conflict"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Core:  CoreConfig{Compression: compress.NameZlib},
		Merge: MergeConfig{FastForward: FastForwardAuto.String(), Conflict: merge.PolicyNone.String()},
	}
}

// Validate checks that every named option is understood.
func (c *Config) Validate() error {
	if _, err := compress.ByName(c.Core.Compression); err != nil {
		return fmt.Errorf("config: core.compression: %w", err)
	}
	if _, err := ParseFastForwardMode(c.Merge.FastForward); err != nil {
		return fmt.Errorf("config: merge.fastforward: %w", err)
	}
	if _, err := merge.ParsePolicy(c.Merge.Conflict); err != nil {
		return fmt.Errorf("config: merge.conflict: %w", err)
	}
	return nil
}

func (c *Config) codec() compress.Codec {
	codec, err := compress.ByName(c.Core.Compression)
	if err != nil {
		return compress.Default
	}
	return codec
}

// readConfig loads config.toml from the metadata FS. A missing file yields
// DefaultConfig; keys absent from the file keep their defaults.
func readConfig(meta vfs.FS) (*Config, error) {
	cfg := DefaultConfig()
	data, err := meta.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig re-reads .mgit/config.toml.
func (r *Repo) ReadConfig() (*Config, error) {
	return readConfig(r.Meta)
}

// WriteConfig atomically writes .mgit/config.toml and makes cfg current.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	data, err := encodeConfig(cfg)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := r.Meta.WriteFile(configFile, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	r.Config = cfg
	return nil
}

func encodeConfig(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Identity returns the "Name <email>" pair used for new commits: the
// [user] section first, then MGIT_AUTHOR_NAME / MGIT_AUTHOR_EMAIL, then $USER.
func (r *Repo) Identity() (name, email string) {
	name = strings.TrimSpace(r.Config.User.Name)
	email = strings.TrimSpace(r.Config.User.Email)
	if name == "" {
		name = strings.TrimSpace(os.Getenv("MGIT_AUTHOR_NAME"))
	}
	if email == "" {
		email = strings.TrimSpace(os.Getenv("MGIT_AUTHOR_EMAIL"))
	}
	if name == "" {
		name = strings.TrimSpace(os.Getenv("USER"))
	}
	if name == "" {
		name = "unknown"
	}
	if email == "" {
		email = name + "@localhost"
	}
	return name, email
}

// FormatIdentity renders an author or committer line value:
// "Name <email> <unix-seconds> <+zzzz>".
func FormatIdentity(name, email string, when time.Time) string {
	return fmt.Sprintf("%s <%s> %d %s", name, email, when.Unix(), when.Format("-0700"))
}

// Signature returns the identity string stamped with the repository clock.
func (r *Repo) Signature() string {
	name, email := r.Identity()
	return FormatIdentity(name, email, r.now())
}
