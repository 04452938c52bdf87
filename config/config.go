package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/catalog"
	"github.com/angas/solarquote-go/logging"
	"github.com/angas/solarquote-go/pvgis"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
	// If not assigned, the server will serve embedded files.
	// If assigned, the server will serve files from the directory,
	// that must contain a "static" and "templates" directory.
	// This is useful for development.
	WwwDir *string `mapstructure:"www_dir"`
	// Key used to authenticate the session cookie, at least 32 bytes
	SessionKey string `mapstructure:"session_key"`
}

type AppConfigDatabase struct {
	Path string
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 90
	}
	return *d.BackupRetentionDays
}

type AppConfigPrice struct {
	Capacity int     `mapstructure:"capacity"` // Installed capacity in kW
	Price    float64 `mapstructure:"price"`    // List price in EUR including VAT
}

type AppConfigRate struct {
	Term int     `mapstructure:"term"` // Number of monthly installments
	Rate float64 `mapstructure:"rate"` // Annual percentage rate (TAEG) in percent
}

// Empty lists fall back to the built in tables.
type AppConfigCatalog struct {
	Prices []AppConfigPrice `mapstructure:"prices"`
	Rates  []AppConfigRate  `mapstructure:"rates"`
}

func (c AppConfigCatalog) GetCatalog() (catalog.Catalog, error) {
	if len(c.Prices) == 0 {
		return catalog.DefaultCatalog(), nil
	}
	prices := make(map[catalog.Capacity]float64, len(c.Prices))
	for _, p := range c.Prices {
		if _, dup := prices[catalog.Capacity(p.Capacity)]; dup {
			return catalog.Catalog{}, fmt.Errorf("duplicate price for %d kW", p.Capacity)
		}
		prices[catalog.Capacity(p.Capacity)] = p.Price
	}
	return catalog.NewCatalog(prices)
}

func (c AppConfigCatalog) GetRateTable() (catalog.RateTable, error) {
	if len(c.Rates) == 0 {
		return catalog.DefaultRateTable(), nil
	}
	rates := make(map[catalog.Term]float64, len(c.Rates))
	for _, r := range c.Rates {
		if _, dup := rates[catalog.Term(r.Term)]; dup {
			return catalog.RateTable{}, fmt.Errorf("duplicate rate for %d months", r.Term)
		}
		rates[catalog.Term(r.Term)] = r.Rate
	}
	return catalog.NewRateTable(rates)
}

type AppConfigSavings struct {
	EscalationRatePct *float64 `mapstructure:"escalation_rate_pct"` // Yearly electricity price increase, default: 5
	UnitPrice         *float64 `mapstructure:"unit_price"`          // Electricity price in EUR/kWh, default: 0.23
	MaxYears          *int     `mapstructure:"max_years"`           // Projection horizon, default: 100
}

func (s AppConfigSavings) GetProjector() calc.SavingsProjector {
	p := calc.DefaultSavingsProjector()
	if s.EscalationRatePct != nil {
		p.EscalationRatePct = *s.EscalationRatePct
	}
	if s.UnitPrice != nil {
		p.UnitPrice = *s.UnitPrice
	}
	if s.MaxYears != nil {
		p.MaxYears = *s.MaxYears
	}
	return p
}

type AppConfigPvgis struct {
	RadDatabase *string  `mapstructure:"raddatabase"`
	Loss        *float64 `mapstructure:"loss"`  // System losses in percent, default: 14
	Angle       *float64 `mapstructure:"angle"` // Panel inclination in degrees, default: 35
}

func (p AppConfigPvgis) GetParameters() pvgis.Parameters {
	params := pvgis.DefaultParameters()
	if p.RadDatabase != nil {
		params.RadDatabase = *p.RadDatabase
	}
	if p.Loss != nil {
		params.Loss = *p.Loss
	}
	if p.Angle != nil {
		params.Angle = *p.Angle
	}
	return params
}

type AppConfigLookup struct {
	// Base URLs, empty means the public services
	ZippopotamUrl string `mapstructure:"zippopotam_url"`
	GiscoUrl      string `mapstructure:"gisco_url"`
	PvgisUrl      string `mapstructure:"pvgis_url"`
	// Timeout per request in seconds, default: 10
	TimeoutSec *int `mapstructure:"timeout_sec"`
	// Max requests per second to each service, default: 5
	RequestsPerSecond *float64       `mapstructure:"requests_per_second"`
	Pvgis             AppConfigPvgis `mapstructure:"pvgis"`
}

func (l AppConfigLookup) GetTimeout() time.Duration {
	if l.TimeoutSec == nil {
		return 10 * time.Second
	}
	return time.Duration(*l.TimeoutSec) * time.Second
}

func (l AppConfigLookup) GetRequestsPerSecond() float64 {
	if l.RequestsPerSecond == nil {
		return 5
	}
	return *l.RequestsPerSecond
}

type AppConfigMaintenance struct {
	RunAt *string `mapstructure:"run_at"` // Cron expression, default: "30 2 * * *"
}

func (m AppConfigMaintenance) GetRunAt() string {
	if m.RunAt == nil {
		return "30 2 * * *"
	}
	return *m.RunAt
}

type AppConfigGui struct {
	// Timezone for displaying times in the GUI, default: UTC
	Timezone *string `mapstructure:"timezone"`
}

func (g AppConfigGui) GetTimezone() string {
	if g.Timezone == nil {
		return "UTC"
	}
	return *g.Timezone
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for database console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api         AppConfigApi
	Database    AppConfigDatabase
	Catalog     AppConfigCatalog     `mapstructure:"catalog"`
	Savings     AppConfigSavings     `mapstructure:"savings"`
	Lookup      AppConfigLookup      `mapstructure:"lookup"`
	Maintenance AppConfigMaintenance `mapstructure:"maintenance"`
	Gui         AppConfigGui         `mapstructure:"gui"`
	Logging     AppConfigLogging     `mapstructure:"logging"`
}

// Load reads the config file, values can be overridden by environment
// variables, e.g. API_PORT, also when set in a .env file.
func Load(path string) (*AppConfig, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}
