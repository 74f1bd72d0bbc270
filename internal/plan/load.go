package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// file is the on-disk shape of plans.yml.
type file struct {
	Order []string            `mapstructure:"order"`
	Tiers map[string]fileTier `mapstructure:"tiers"`
	Apps  map[string]fileApp  `mapstructure:"apps"`
}

type fileTier struct {
	Features []string       `mapstructure:"features"`
	Limits   map[string]any `mapstructure:"limits"`
}

type fileApp struct {
	MinimumFeature string `mapstructure:"minimum_feature"`
	SeatGated      bool   `mapstructure:"seat_gated"`
}

// Load reads the plan table from plans.yml, falling back to the built-in
// defaults when no file is present. The result is immutable.
func Load(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigName("plans")
	v.SetConfigType("yml")
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("/etc/zugang")
		v.AddConfigPath(".")
	}

	raw := defaultFile()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read plan config: %w", err)
		}
	} else {
		var loaded file
		if err := v.UnmarshalKey("plans", &loaded); err != nil {
			return nil, fmt.Errorf("parse plan config: %w", err)
		}
		raw = loaded
	}

	return build(raw)
}

// Default returns the built-in table; used by tests and the dev mode.
func Default() *Table {
	table, err := build(defaultFile())
	if err != nil {
		panic(err)
	}
	return table
}

func build(raw file) (*Table, error) {
	tiers := make(map[string]TierSpec, len(raw.Tiers))
	for name, ft := range raw.Tiers {
		limits := make(map[string]Limit, len(ft.Limits))
		for key, value := range ft.Limits {
			limit, err := parseLimit(value)
			if err != nil {
				return nil, fmt.Errorf("tier %s limit %s: %w", name, key, err)
			}
			limits[key] = limit
		}
		tiers[strings.ToLower(name)] = TierSpec{
			Features: ft.Features,
			Limits:   limits,
		}
	}

	apps := make(map[string]AppSpec, len(raw.Apps))
	for appID, fa := range raw.Apps {
		apps[strings.ToLower(appID)] = AppSpec{
			MinimumFeature: strings.TrimSpace(fa.MinimumFeature),
			SeatGated:      fa.SeatGated,
		}
	}

	return newTable(raw.Order, tiers, apps)
}

func parseLimit(value any) (Limit, error) {
	switch typed := value.(type) {
	case string:
		if strings.EqualFold(strings.TrimSpace(typed), "unlimited") {
			return Limit{Unlimited: true}, nil
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return Limit{}, fmt.Errorf("invalid limit %q", typed)
		}
		return Limit{Value: parsed}, nil
	case int:
		return Limit{Value: int64(typed)}, nil
	case int64:
		return Limit{Value: typed}, nil
	case float64:
		return Limit{Value: int64(typed)}, nil
	default:
		return Limit{}, fmt.Errorf("invalid limit value of type %T", value)
	}
}
