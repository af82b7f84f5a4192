package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"bilatcli/internal/errors"
	"bilatcli/pkg/contracts/domain"
)

// Config represents the complete pipeline configuration. Technologies are an
// ordered list: declaration order is the processing order and decides which
// commodity claims a shared flow edge first.
type Config struct {
	Scenario     ScenarioConfig      `yaml:"scenario" envconfig:"SCENARIO"`
	Logging      LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Paths        PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Calibration  CalibrationConfig   `yaml:"calibration" envconfig:"CALIBRATION"`
	Nodes        []domain.Node       `yaml:"nodes" validate:"min=2,dive,required"`
	Technologies []domain.Technology `yaml:"technologies" validate:"min=1,dive"`

	// YearAxisFile points at the separate year-axis document; Years holds its
	// parsed contents after Load.
	YearAxisFile string          `yaml:"year_axis_file" envconfig:"YEAR_AXIS_FILE"`
	Years        domain.YearAxis `yaml:"-"`
}

// ScenarioConfig identifies the target scenario in the store.
type ScenarioConfig struct {
	Model    string `yaml:"model" envconfig:"MODEL" validate:"required"`
	Scenario string `yaml:"scenario" envconfig:"NAME" validate:"required"`
	Comment  string `yaml:"comment" envconfig:"COMMENT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir        string `yaml:"base_dir" envconfig:"BASE_DIR"`
	TemplatesDir   string `yaml:"templates_dir" envconfig:"TEMPLATES_DIR"`
	NetworksDir    string `yaml:"networks_dir" envconfig:"NETWORKS_DIR"`
	CalibrationDir string `yaml:"calibration_dir" envconfig:"CALIBRATION_DIR"`
	AuditDir       string `yaml:"audit_dir" envconfig:"AUDIT_DIR"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// CalibrationConfig locates the external calibration sources and sets the
// cutoff year at or before which observed values override structural ones.
type CalibrationConfig struct {
	CutoffYear     int    `yaml:"cutoff_year" envconfig:"CUTOFF_YEAR"`
	TradeStatsFile string `yaml:"trade_stats_file" envconfig:"TRADE_STATS_FILE"`
	ShippingFile   string `yaml:"shipping_file" envconfig:"SHIPPING_FILE"`
	PricesFile     string `yaml:"prices_file" envconfig:"PRICES_FILE"`
	ConversionFile string `yaml:"conversion_file" envconfig:"CONVERSION_FILE"`
}

// yearAxisDocument is the on-disk shape of the year-axis document.
type yearAxisDocument struct {
	Vintage  []int `yaml:"vintage_years"`
	Activity []int `yaml:"activity_years"`
}

// Load reads the project configuration file, applies environment overrides
// (env wins), loads the year-axis document, fills defaults and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("cannot read config %s", path), err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("cannot parse config %s", path), err)
	}

	if err := envconfig.Process("BILAT", &cfg); err != nil {
		return nil, errors.NewConfigurationError("failed to apply environment overrides", err)
	}

	cfg.applyDefaults()

	if cfg.YearAxisFile != "" {
		axis, err := loadYearAxis(cfg.YearAxisFile)
		if err != nil {
			return nil, err
		}
		cfg.Years = axis
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadYearAxis reads the separate year-axis document.
func loadYearAxis(path string) (domain.YearAxis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.YearAxis{}, errors.NewConfigurationError(fmt.Sprintf("cannot read year axis %s", path), err)
	}
	var doc yearAxisDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.YearAxis{}, errors.NewConfigurationError(fmt.Sprintf("cannot parse year axis %s", path), err)
	}
	if len(doc.Vintage) == 0 || len(doc.Activity) == 0 {
		return domain.YearAxis{}, errors.NewConfigurationError(
			fmt.Sprintf("year axis %s must declare vintage_years and activity_years", path), nil)
	}
	return domain.NewYearAxis(doc.Vintage, doc.Activity), nil
}

// applyDefaults fills zero values with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/bilateralize.log"
	}
	if c.Paths.BaseDir == "" {
		c.Paths.BaseDir = "data"
	}
	for i := range c.Technologies {
		t := &c.Technologies[i]
		if t.Multiplicity == 0 {
			t.Multiplicity = 1
		}
		if t.NetworkMode == "" {
			t.NetworkMode = domain.NetworkFullProduct
		}
		if t.FlowScope == "" {
			t.FlowScope = domain.FlowScopeBilateral
		}
	}
}

// Validate checks the configuration. Missing scenario identifiers or an
// undersized node list are fatal before any external data is read.
func (c *Config) Validate() error {
	if c.Scenario.Model == "" || c.Scenario.Scenario == "" {
		return errors.NewConfigurationError("scenario model and name are required", nil)
	}
	if len(c.Nodes) < 2 {
		return errors.NewConfigurationError("at least two nodes are required to form a network", nil)
	}
	seen := make(map[domain.Node]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if seen[n] {
			return errors.NewConfigurationError(fmt.Sprintf("duplicate node %s", n), nil)
		}
		seen[n] = true
	}
	names := make(map[string]bool, len(c.Technologies))
	for _, t := range c.Technologies {
		if names[t.Name] {
			return errors.NewConfigurationError(fmt.Sprintf("duplicate technology %s", t.Name), nil)
		}
		names[t.Name] = true
	}
	if len(c.Years.Vintage) == 0 || len(c.Years.Activity) == 0 {
		return errors.NewConfigurationError("year axis is required (set year_axis_file)", nil)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.NewConfigurationError("config validation failed", err)
	}
	return nil
}

// TechnologyByName returns the declared technology with the given name.
func (c *Config) TechnologyByName(name string) (domain.Technology, bool) {
	for _, t := range c.Technologies {
		if t.Name == name {
			return t, true
		}
	}
	return domain.Technology{}, false
}
