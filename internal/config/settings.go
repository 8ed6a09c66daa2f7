// Package config resolves runtime settings and logging for structur.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	m "github.com/structur-io/structur/internal/model"
)

// Settings is the resolved configuration bundle for a processing run.
type Settings struct {
	InputFolder string `mapstructure:"input_folder"`
	OutputBase  string `mapstructure:"output_base"`

	// Output folder names under OutputBase.
	CodedFolder        string `mapstructure:"coded_folder"`
	UncodedFolder      string `mapstructure:"uncoded_folder"`
	DuplicatesFolder   string `mapstructure:"duplicates_folder"`
	MalformedFolder    string `mapstructure:"malformed_folder"`
	AlreadyCodedFolder string `mapstructure:"already_coded_folder"`
	OriginalsFolder    string `mapstructure:"originals_folder"`

	// Processing options.
	PreserveCodes bool     `mapstructure:"preserve_codes"`
	AppendMode    bool     `mapstructure:"append_mode"`
	LinkToSource  bool     `mapstructure:"link_to_source"`
	CodeFilters   []string `mapstructure:"code_filters"`
	Styles        []string `mapstructure:"styles"`

	// Master code list.
	CodesFile       string `mapstructure:"codes_file"`
	AutoCodesFile   bool   `mapstructure:"auto_codes_file"`
	RegenerateCodes bool   `mapstructure:"regenerate_codes"`

	// Output toggles.
	UncodedEnabled    bool `mapstructure:"uncoded_enabled"`
	DuplicatesEnabled bool `mapstructure:"duplicates_enabled"`
	OriginalsEnabled  bool `mapstructure:"originals_enabled"`

	Verbose bool `mapstructure:"verbose"`
}

// LoadSettings resolves settings from environment variables, an optional
// .structur.yaml file and defaults.
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags resolves settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > config file > defaults.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("coded_folder", "coded")
	v.SetDefault("uncoded_folder", "uncoded")
	v.SetDefault("duplicates_folder", "duplicates")
	v.SetDefault("malformed_folder", "malformed")
	v.SetDefault("already_coded_folder", "already_coded")
	v.SetDefault("originals_folder", "originals")

	v.SetDefault("preserve_codes", false)
	v.SetDefault("append_mode", true)
	v.SetDefault("link_to_source", false)
	v.SetDefault("styles", []string{string(m.StyleBrace), string(m.StyleBracket)})

	v.SetDefault("auto_codes_file", false)
	v.SetDefault("regenerate_codes", false)

	v.SetDefault("uncoded_enabled", true)
	v.SetDefault("duplicates_enabled", true)
	v.SetDefault("originals_enabled", true)

	v.SetEnvPrefix("STRUCTUR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		_ = v.BindPFlag("coded_folder", flags.Lookup("coded-folder"))
		_ = v.BindPFlag("uncoded_folder", flags.Lookup("uncoded-folder"))
		_ = v.BindPFlag("duplicates_folder", flags.Lookup("duplicates-folder"))
		_ = v.BindPFlag("malformed_folder", flags.Lookup("malformed-folder"))
		_ = v.BindPFlag("already_coded_folder", flags.Lookup("already-coded-folder"))
		_ = v.BindPFlag("originals_folder", flags.Lookup("originals-folder"))
		_ = v.BindPFlag("preserve_codes", flags.Lookup("preserve-codes"))
		_ = v.BindPFlag("link_to_source", flags.Lookup("link-source"))
		_ = v.BindPFlag("code_filters", flags.Lookup("filter-codes"))
		_ = v.BindPFlag("styles", flags.Lookup("styles"))
		_ = v.BindPFlag("codes_file", flags.Lookup("codes-file"))
		_ = v.BindPFlag("auto_codes_file", flags.Lookup("auto-codes-file"))
		_ = v.BindPFlag("regenerate_codes", flags.Lookup("regenerate-codes"))
	}

	// Optional project config file; absence is not an error.
	v.SetConfigName(".structur")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Toggles expressed as negative flags on the CLI.
	if flags != nil {
		if overwrite, err := flags.GetBool("overwrite"); err == nil && overwrite {
			settings.AppendMode = false
		}

		if off, err := flags.GetBool("no-uncoded"); err == nil && off {
			settings.UncodedEnabled = false
		}

		if off, err := flags.GetBool("no-duplicates"); err == nil && off {
			settings.DuplicatesEnabled = false
		}

		if off, err := flags.GetBool("no-originals"); err == nil && off {
			settings.OriginalsEnabled = false
		}
	}

	return &settings, nil
}

// Validate checks the settings for a processing run.
func (s *Settings) Validate() error {
	if s.InputFolder == "" {
		return errors.New("input folder is required")
	}

	if s.OutputBase == "" {
		return errors.New("output folder is required")
	}

	if _, err := s.BracketStyles(); err != nil {
		return err
	}

	return nil
}

// BracketStyles parses the configured style names.
func (s *Settings) BracketStyles() ([]m.BracketStyle, error) {
	styles := make([]m.BracketStyle, 0, len(s.Styles))

	for _, name := range s.Styles {
		switch m.BracketStyle(name) {
		case m.StyleBrace, m.StyleBracket:
			styles = append(styles, m.BracketStyle(name))
		default:
			return nil, fmt.Errorf("unknown bracket style %q", name)
		}
	}

	if len(styles) == 0 {
		return nil, errors.New("at least one bracket style is required")
	}

	return styles, nil
}

// Output path helpers.

func (s *Settings) CodedPath() m.Path {
	return m.Path(filepath.Join(s.OutputBase, s.CodedFolder))
}

func (s *Settings) UncodedPath() m.Path {
	return m.Path(filepath.Join(s.OutputBase, s.UncodedFolder))
}

func (s *Settings) DuplicatesPath() m.Path {
	return m.Path(filepath.Join(s.OutputBase, s.DuplicatesFolder))
}

func (s *Settings) MalformedPath() m.Path {
	return m.Path(filepath.Join(s.OutputBase, s.MalformedFolder))
}

func (s *Settings) AlreadyCodedPath() m.Path {
	return m.Path(filepath.Join(s.OutputBase, s.AlreadyCodedFolder))
}

func (s *Settings) OriginalsPath() m.Path {
	return m.Path(filepath.Join(s.OutputBase, s.OriginalsFolder))
}
