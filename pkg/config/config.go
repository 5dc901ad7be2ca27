// Package config handles bsscript.toml tool configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/zurustar/bsscript/pkg/fileutil"
	"github.com/zurustar/bsscript/pkg/logger"
)

// FileName is the configuration file looked up when none is given.
const FileName = "bsscript.toml"

// Environment variables read by ApplyEnv.
const (
	EnvBasePath = "BSSCRIPT_BASE_PATH"
	EnvLogLevel = "LOG_LEVEL"
)

// Config は設定ファイル・環境変数・フラグをまとめた設定
type Config struct {
	BasePath         string `toml:"base_path"`         // バンドルのあるディレクトリ
	Bundle           string `toml:"bundle"`            // スクリプトを格納したコレクション名
	LogLevel         string `toml:"log_level"`         // debug, info, warn, error
	Encoding         string `toml:"encoding"`          // .bss ファイルの文字コード
	IgnoreExceptions bool   `toml:"ignore_exceptions"` // コンパイルエラーの行を読み飛ばす
	StrictDecode     bool   `toml:"strict_decode"`     // 壊れたエントリで読み込みを中断する

	// Path is the file the configuration was read from, or "".
	Path string `toml:"-"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Bundle:   "scriptdata",
		LogLevel: "info",
		Encoding: string(fileutil.UTF8),
	}
}

// Load reads path over the defaults. When path is empty, FileName in the
// current directory is used if it exists. A relative base_path is resolved
// against the directory of the file.
func Load(path string) (*Config, error) {
	c := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	c.Path = path
	if c.BasePath != "" && !filepath.IsAbs(c.BasePath) {
		c.BasePath = filepath.Join(filepath.Dir(path), c.BasePath)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment. getenv is os.Getenv in
// production.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvBasePath); v != "" {
		c.BasePath = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate checks values that the rest of the tool relies on.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := fileutil.ParseEncoding(c.Encoding); err != nil {
		return err
	}
	if strings.TrimSpace(c.Bundle) == "" {
		return errors.New("bundle name must not be empty")
	}
	return nil
}

// TextEncoding returns the validated encoding.
func (c *Config) TextEncoding() fileutil.Encoding {
	enc, err := fileutil.ParseEncoding(c.Encoding)
	if err != nil {
		return fileutil.UTF8
	}
	return enc
}
