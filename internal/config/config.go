package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	DBDSN       string `yaml:"db_dsn"`
	LogFile     string `yaml:"log_file"`
	CatalogBase string `yaml:"catalog_base"`
	ShopDomain  string `yaml:"shop_domain"`

	// FetchTimeoutSec bounds every upstream catalog call.
	FetchTimeoutSec int `yaml:"fetch_timeout_sec"`
	// SnapshotTTLHours is the session-recovery staleness window.
	SnapshotTTLHours int `yaml:"snapshot_ttl_hours"`
	// AddOnStep switches the wizard to the 5-step variant with a
	// dedicated add-on step between Quantity and Review.
	AddOnStep bool `yaml:"add_on_step"`
}

func (c Config) FetchTimeout() time.Duration { return time.Duration(c.FetchTimeoutSec) * time.Second }
func (c Config) SnapshotTTL() time.Duration  { return time.Duration(c.SnapshotTTLHours) * time.Hour }

// Load reads an optional YAML file (CONFIG_FILE), then lets environment
// variables override it, then fills defaults.
func Load() Config {
	var cfg Config

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[config] could not read %s: %v", path, err)
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Printf("[config] could not parse %s: %v", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DBDSN = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("CATALOG_BASE"); v != "" {
		cfg.CatalogBase = v
	}
	if v := os.Getenv("SHOP_DOMAIN"); v != "" {
		cfg.ShopDomain = v
	}
	if v := os.Getenv("FETCH_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeoutSec = n
		}
	}
	if v := os.Getenv("SNAPSHOT_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SnapshotTTLHours = n
		}
	}
	if v := os.Getenv("ADD_ON_STEP"); v != "" {
		cfg.AddOnStep = v == "1" || v == "true"
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBDSN == "" {
		cfg.DBDSN = "cellardoor.db" // sqlite file in project root
	}
	if cfg.CatalogBase == "" {
		cfg.CatalogBase = "https://api.wineclubs.example.com/v1"
	}
	if cfg.FetchTimeoutSec <= 0 {
		cfg.FetchTimeoutSec = 5
	}
	if cfg.SnapshotTTLHours <= 0 {
		cfg.SnapshotTTLHours = 24
	}

	log.Printf("[config] PORT=%s DB_DSN=%s CATALOG_BASE=%s SHOP_DOMAIN=%s TIMEOUT=%ds TTL=%dh ADDON_STEP=%v",
		cfg.Port, cfg.DBDSN, cfg.CatalogBase, cfg.ShopDomain, cfg.FetchTimeoutSec, cfg.SnapshotTTLHours, cfg.AddOnStep)
	return cfg
}
