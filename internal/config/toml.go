// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice  PracticeConfig  `toml:"practice"`
	AntiCheat AntiCheatConfig `toml:"anticheat"`
	User      UserConfig      `toml:"user"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Difficulty   *string  `toml:"difficulty"`
	Mode         *string  `toml:"mode"`
	Category     *string  `toml:"category"`
	Language     *string  `toml:"language"`
	Duration     *int     `toml:"duration"`
	CapsPct      *float64 `toml:"caps"`
	PunctPct     *float64 `toml:"punct"`
	PunctSet     *string  `toml:"punct-set"`
	WordList     *string  `toml:"wordlist"`
	WordListLang *string  `toml:"wordlist-lang"`
	CustomFile   *string  `toml:"custom-file"`
}

// AntiCheatConfig maps the result acceptance policy.
type AntiCheatConfig struct {
	Threshold *float64 `toml:"threshold"`
}

// UserConfig names the local player.
type UserConfig struct {
	Name *string `toml:"name"`
}

// ServerConfig maps the read-only HTTP API settings.
type ServerConfig struct {
	Addr         *string  `toml:"addr"`
	AllowOrigins []string `toml:"allow-origins"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is the commented starter file written by `tapixo config`.
const Template = `# tapixo configuration

[practice]
# difficulty = "hard"        # easy | medium | hard | ranked | custom
# mode = "passage"           # passage | timed
# category = "words"         # words | quotes | lyrics | code
# language = "javascript"    # code passages: javascript python java c++ c# sql html css
# duration = 60              # timed mode seconds
# caps = 0.0                 # probability of a capitalized word
# punct = 0.0                # probability of trailing punctuation
# punct-set = ".,;:!?"
# wordlist = ""              # one word per line, replaces built-in words
# wordlist-lang = ""         # "en" keeps lowercase ASCII words only
# custom-file = ""           # practice this text as a custom passage

[anticheat]
# threshold = 0.7

[user]
# name = ""

[server]
# addr = "127.0.0.1:8080"
# allow-origins = ["http://localhost:5173"]

[log]
# level = "info"
# format = "text"            # text | json
# file = ""
`
