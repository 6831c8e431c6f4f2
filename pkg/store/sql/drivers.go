package sql

import (
	"database/sql"
	"fmt"
	"net/url"
	"slices"
	"strings"

	dbconfig "github.com/databricks/databricks-sdk-go/config"
	_ "github.com/databricks/databricks-sql-go"
	_ "github.com/marcboeker/go-duckdb/v2"
	sf "github.com/snowflakedb/gosnowflake"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

const (
	DriverDuckDB     = "duckdb"
	DriverSnowflake  = "snowflake"
	DriverDatabricks = "databricks"
)

const DefaultDatabricksProfile = "DEFAULT"

var drivers = []string{DriverDuckDB, DriverSnowflake, DriverDatabricks}

// Connection names a database. When DSN is empty, snowflake and databricks
// build one from the profile file at ProfilePath.
type Connection struct {
	Driver      string
	DSN         string
	ProfilePath string
	Profile     string // .databrickscfg section, DEFAULT when empty
	HTTPPath    string // overrides http_path from the profile
}

// Open opens a database/sql handle for one of the supported drivers.
func Open(conn Connection) (*sql.DB, error) {
	if !slices.Contains(drivers, conn.Driver) {
		return nil, fmt.Errorf("unsupported sql driver %q, expected one of %v", conn.Driver, drivers)
	}

	dsn := conn.DSN
	if dsn == "" && conn.ProfilePath != "" {
		var err error
		switch conn.Driver {
		case DriverSnowflake:
			var cfg *sf.Config
			if cfg, err = LoadSnowflakeConfig(conn.ProfilePath); err == nil {
				dsn, err = sf.DSN(cfg)
			}
		case DriverDatabricks:
			var profile *DatabricksProfile
			if profile, err = LoadDatabricksProfile(conn.ProfilePath, conn.Profile); err == nil {
				if conn.HTTPPath != "" {
					profile.HTTPPath = conn.HTTPPath
				}
				dsn, err = profile.DSN()
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s DSN: %w", conn.Driver, err)
		}
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s: dsn is required", conn.Driver)
	}

	db, err := sql.Open(conn.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", conn.Driver, err)
	}
	return db, nil
}

// LoadSnowflakeConfig reads account, user, password, database, warehouse and
// role from a YAML/TOML/JSON profile.
func LoadSnowflakeConfig(profilePath string) (*sf.Config, error) {
	v := viper.New()
	v.SetConfigFile(profilePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read snowflake profile: %w", err)
	}

	var cfg sf.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse snowflake profile: %w", err)
	}
	return &cfg, nil
}

type DatabricksProfile struct {
	*dbconfig.Config
	HTTPPath string
	Catalog  string
	Schema   string
}

// LoadDatabricksProfile reads one section of a .databrickscfg file. Besides
// host and token, the section may carry http_path, catalog and schema.
func LoadDatabricksProfile(path, profile string) (*DatabricksProfile, error) {
	if profile == "" {
		profile = DefaultDatabricksProfile
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read databricks profiles: %w", err)
	}
	section, err := file.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", profile)
	}

	return &DatabricksProfile{
		Config: &dbconfig.Config{
			Profile:    profile,
			ConfigFile: path,
			Host:       section.Key("host").String(),
			Token:      section.Key("token").String(),
		},
		HTTPPath: section.Key("http_path").String(),
		Catalog:  section.Key("catalog").String(),
		Schema:   section.Key("schema").String(),
	}, nil
}

// DSN requires a token and a warehouse http_path.
func (p *DatabricksProfile) DSN() (string, error) {
	if p.Token == "" {
		return "", fmt.Errorf("profile %s has no token", p.Profile)
	}
	if p.HTTPPath == "" {
		return "", fmt.Errorf("profile %s has no http_path", p.Profile)
	}

	host := strings.TrimSuffix(strings.TrimPrefix(p.Host, "https://"), "/")
	dsn := DatabricksDSN(p.Token, host, p.HTTPPath)

	params := url.Values{}
	if p.Catalog != "" {
		params.Set("catalog", p.Catalog)
	}
	if p.Schema != "" {
		params.Set("schema", p.Schema)
	}
	if qp := params.Encode(); qp != "" {
		dsn = dsn + "?" + qp
	}
	return dsn, nil
}

// DatabricksDSN builds a token-authenticated databricks-sql-go DSN.
func DatabricksDSN(token, host, httpPath string) string {
	return fmt.Sprintf("token:%s@%s%s", token, host, httpPath)
}
