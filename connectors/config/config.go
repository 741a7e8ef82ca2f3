package config

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Defaults applied when config.yml is absent or leaves fields empty.
const (
	DefaultBaseURL         = "https://api.smartsheet.com/2.0"
	DefaultTokenFile       = "config/devtoken"
	DefaultSheetName       = "ARR per Location"
	DefaultCSVPath         = "data/data.csv"
	DefaultDeleteBatchSize = 300
	DefaultUpdateBatchSize = 100
	DefaultLocationColumn  = "Location"
	DefaultARRColumn       = "ARR"
)

// Config is the resolved job configuration. It is built once in the command
// entry point and passed down; nothing reads the environment after Load.
type Config struct {
	Smartsheet struct {
		BaseURL         string `yaml:"base_url"`
		TokenFile       string `yaml:"token_file"`
		SheetName       string `yaml:"sheet_name"`
		DeleteBatchSize int    `yaml:"delete_batch_size"`
		UpdateBatchSize int    `yaml:"update_batch_size"`
	} `yaml:"smartsheet"`
	Input struct {
		CSVPath string `yaml:"csv_path"`
	} `yaml:"input"`
	Columns struct {
		Location string `yaml:"location"`
		ARR      string `yaml:"arr"`
	} `yaml:"columns"`

	// Token is resolved from SMARTSHEET_TOKEN or the token file, never from yaml.
	Token string `yaml:"-"`
}

// envOverrides are applied on top of the file config.
type envOverrides struct {
	Token     string `envconfig:"SMARTSHEET_TOKEN"`
	BaseURL   string `envconfig:"SMARTSHEET_BASE_URL"`
	SheetName string `envconfig:"SHEET_NAME"`
}

// Load parses the YAML configuration file at path, fills defaults, applies
// environment overrides and resolves the API token. A missing file is not an
// error; defaults plus environment are enough to run.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		slog.Info("config.loaded", "path", path)
	case errors.Is(err, os.ErrNotExist):
		slog.Info("config.defaults", "path", path)
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyDefaults(&c)

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if env.BaseURL != "" {
		c.Smartsheet.BaseURL = env.BaseURL
	}
	if env.SheetName != "" {
		c.Smartsheet.SheetName = env.SheetName
	}

	c.Token = env.Token
	if c.Token == "" {
		tok, err := tokenFromFile(c.Smartsheet.TokenFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		c.Token = tok
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Smartsheet.BaseURL == "" {
		c.Smartsheet.BaseURL = DefaultBaseURL
	}
	if c.Smartsheet.TokenFile == "" {
		c.Smartsheet.TokenFile = DefaultTokenFile
	}
	if c.Smartsheet.SheetName == "" {
		c.Smartsheet.SheetName = DefaultSheetName
	}
	if c.Smartsheet.DeleteBatchSize <= 0 {
		c.Smartsheet.DeleteBatchSize = DefaultDeleteBatchSize
	}
	if c.Smartsheet.UpdateBatchSize <= 0 {
		c.Smartsheet.UpdateBatchSize = DefaultUpdateBatchSize
	}
	if c.Input.CSVPath == "" {
		c.Input.CSVPath = DefaultCSVPath
	}
	if c.Columns.Location == "" {
		c.Columns.Location = DefaultLocationColumn
	}
	if c.Columns.ARR == "" {
		c.Columns.ARR = DefaultARRColumn
	}
}

// tokenFromFile reads a dotenv-style file of KEY=VALUE lines and returns the
// SMARTSHEET_TOKEN value (legacy key SMARTSHEET_ACCESS_TOKEN also accepted).
// A file holding a bare token on a single line works too.
func tokenFromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var bare string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			if bare == "" {
				bare = line
			}
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "SMARTSHEET_TOKEN" || key == "SMARTSHEET_ACCESS_TOKEN" {
			return value, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading token file %s: %w", path, err)
	}
	return bare, nil
}
