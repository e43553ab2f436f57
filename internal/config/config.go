package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"lending-ledger/internal/usecase/lifecycle"
)

type Config struct {
	AppPort string `yaml:"app_port"`

	DBDriver   string `yaml:"db_driver"`
	SQLitePath string `yaml:"sqlite_path"`

	MySQLHost string `yaml:"mysql_host"`
	MySQLPort string `yaml:"mysql_port"`
	MySQLDB   string `yaml:"mysql_db"`
	MySQLUser string `yaml:"mysql_user"`
	MySQLPass string `yaml:"mysql_pass"`

	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`

	IdempTTLSecs int `yaml:"idempotency_ttl_seconds"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	MinCollateralRatio    uint64 `yaml:"min_collateral_ratio"`
	LiquidationThreshold  uint64 `yaml:"liquidation_threshold"`
	DefaultInterestRate   uint64 `yaml:"default_interest_rate"`
	TicksPerDay           uint64 `yaml:"ticks_per_day"`
	MaxActiveLoans        int    `yaml:"max_active_loans"`
	CollateralAsset       string `yaml:"collateral_asset"`
	CollateralUnit        uint64 `yaml:"collateral_unit"`
	AllowPartialRepayment bool   `yaml:"allow_partial_repayment"`

	// PlatformInitialized is used when no Redis flag is reachable.
	PlatformInitialized bool  `yaml:"platform_initialized"`
	GenesisUnix         int64 `yaml:"genesis_unix"`
	TickSeconds         int64 `yaml:"tick_seconds"`
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, dst *int) {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envUint(k string, dst *uint64) {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envInt64(k string, dst *int64) {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envBool(k string, dst *bool) {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func defaults() *Config {
	p := lifecycle.DefaultParams()
	return &Config{
		AppPort:   "8080",
		DBDriver:  DriverMySQL,
		MySQLHost: "mysql",
		MySQLPort: "3306",
		MySQLDB:   "ledger",
		MySQLUser: "ledger",
		MySQLPass: "ledger",

		RedisAddr:    "redis:6379",
		IdempTTLSecs: 300,
		LogLevel:     "info",

		MinCollateralRatio:    p.MinCollateralRatioPct,
		LiquidationThreshold:  p.LiquidationThresholdPct,
		DefaultInterestRate:   p.DefaultInterestRatePct,
		TicksPerDay:           p.TicksPerDay,
		MaxActiveLoans:        p.MaxActiveLoansPerUser,
		CollateralAsset:       p.CollateralAsset,
		CollateralUnit:        p.CollateralUnit,
		AllowPartialRepayment: p.AllowPartialRepayment,

		TickSeconds: 600,
	}
}

// Load builds the config from defaults, then the YAML file named by path (or
// LEDGER_CONFIG when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	c := defaults()

	if path == "" {
		path = os.Getenv("LEDGER_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.DBDriver = strings.ToLower(getenv("DB_DRIVER", c.DBDriver))
	c.SQLitePath = getenv("SQLITE_PATH", c.SQLitePath)
	c.MySQLHost = getenv("MYSQL_HOST", c.MySQLHost)
	c.MySQLPort = getenv("MYSQL_PORT", c.MySQLPort)
	c.MySQLDB = getenv("MYSQL_DB", c.MySQLDB)
	c.MySQLUser = getenv("MYSQL_USER", c.MySQLUser)
	c.MySQLPass = getenv("MYSQL_PASS", c.MySQLPass)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	envInt("REDIS_DB", &c.RedisDB)
	envInt("IDEMPOTENCY_TTL_SECONDS", &c.IdempTTLSecs)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getenv("LOG_FILE", c.LogFile)

	envUint("MIN_COLLATERAL_RATIO", &c.MinCollateralRatio)
	envUint("LIQUIDATION_THRESHOLD", &c.LiquidationThreshold)
	envUint("DEFAULT_INTEREST_RATE", &c.DefaultInterestRate)
	envUint("TICKS_PER_DAY", &c.TicksPerDay)
	envInt("MAX_ACTIVE_LOANS", &c.MaxActiveLoans)
	c.CollateralAsset = getenv("COLLATERAL_ASSET", c.CollateralAsset)
	envUint("COLLATERAL_UNIT", &c.CollateralUnit)
	envBool("ALLOW_PARTIAL_REPAYMENT", &c.AllowPartialRepayment)
	envBool("PLATFORM_INITIALIZED", &c.PlatformInitialized)
	envInt64("GENESIS_UNIX", &c.GenesisUnix)
	envInt64("TICK_SECONDS", &c.TickSeconds)

	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.TickSeconds <= 0 {
		return fmt.Errorf("TICK_SECONDS must be positive, got %d", c.TickSeconds)
	}
	if err := c.LifecycleParams().Validate(); err != nil {
		return fmt.Errorf("lending params: %w", err)
	}
	return nil
}

func (c *Config) LifecycleParams() lifecycle.Params {
	return lifecycle.Params{
		MinCollateralRatioPct:   c.MinCollateralRatio,
		LiquidationThresholdPct: c.LiquidationThreshold,
		DefaultInterestRatePct:  c.DefaultInterestRate,
		TicksPerDay:             c.TicksPerDay,
		MaxActiveLoansPerUser:   c.MaxActiveLoans,
		CollateralAsset:         c.CollateralAsset,
		CollateralUnit:          c.CollateralUnit,
		AllowPartialRepayment:   c.AllowPartialRepayment,
	}
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
