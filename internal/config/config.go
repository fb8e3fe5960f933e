package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	catalog "github.com/sk1972-mend/mendinsurance/internal/catalog/domain"
	claims "github.com/sk1972-mend/mendinsurance/internal/claims/domain"
)

// Config is the process configuration.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	JWTSecret       string
	LogLevel        string
	RulesPath       string
	ShutdownTimeout time.Duration
	Rules           Rules
}

// TierOverride overrides the pricing of one tier. Empty fields keep the
// built-in value.
type TierOverride struct {
	MonthlyPremium string `yaml:"monthly_premium"`
	Deductible     string `yaml:"deductible"`
	Label          string `yaml:"label"`
}

// Rules is the business rules file.
type Rules struct {
	Routing        map[string]string    `yaml:"routing"`
	Pricing        map[int]TierOverride `yaml:"pricing"`
	CommissionRate string               `yaml:"commission_rate"`
}

// Load reads .env (when present), the environment and the optional rules
// file named by RULES_CONFIG.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	cfg := Config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		RulesPath:       os.Getenv("RULES_CONFIG"),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if cfg.RulesPath != "" {
		rules, err := LoadRules(cfg.RulesPath)
		if err != nil {
			return cfg, err
		}
		cfg.Rules = rules
	}
	if rate := os.Getenv("COMMISSION_RATE"); rate != "" {
		cfg.Rules.CommissionRate = rate
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL or PG_DSN is required")
	}
	if c.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	return nil
}

// LoadRules parses a YAML rules file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("config: read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses YAML rules.
func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("config: parse rules: %w", err)
	}
	return rules, nil
}

// Router builds the claim router. Without a routing section the default
// table is used; a partial table is rejected.
func (r Rules) Router() (*claims.Router, error) {
	if len(r.Routing) == 0 {
		return claims.DefaultRouter(), nil
	}
	table := make(map[claims.DamageCategory]claims.RepairType, len(r.Routing))
	for category, repair := range r.Routing {
		table[claims.DamageCategory(strings.TrimSpace(category))] = claims.RepairType(strings.TrimSpace(repair))
	}
	return claims.NewRouter(table)
}

// Catalog builds the tier catalog with pricing overrides applied.
func (r Rules) Catalog() (*catalog.Catalog, error) {
	if len(r.Pricing) == 0 {
		return catalog.Default(), nil
	}
	overrides := make(map[int]catalog.TierPricing, len(r.Pricing))
	for tier, override := range r.Pricing {
		pricing := catalog.TierPricing{Tier: tier, Label: override.Label}
		if override.MonthlyPremium != "" {
			value, err := decimal.NewFromString(override.MonthlyPremium)
			if err != nil {
				return nil, fmt.Errorf("config: tier %d monthly_premium: %w", tier, err)
			}
			pricing.MonthlyPremium = value
		}
		if override.Deductible != "" {
			value, err := decimal.NewFromString(override.Deductible)
			if err != nil {
				return nil, fmt.Errorf("config: tier %d deductible: %w", tier, err)
			}
			pricing.Deductible = value
		}
		overrides[tier] = pricing
	}
	return catalog.New(overrides)
}

// Commission returns the activation commission rate, or zero when unset.
func (r Rules) Commission() (decimal.Decimal, error) {
	if strings.TrimSpace(r.CommissionRate) == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(r.CommissionRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: commission_rate: %w", err)
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("config: commission_rate %s must be in (0, 1]", rate)
	}
	return rate, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
		return fallback
	}
	return parsed
}
