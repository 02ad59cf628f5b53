// Package config loads the odpic-bindgen configuration file.
//
// The file is YAML, named odpic-bindgen.yaml and searched in the working
// directory unless a path is given. Every key can be overridden from the
// environment with the ODPIC_BINDGEN_ prefix, dots becoming underscores
// (ODPIC_BINDGEN_LOG_LEVEL). Relative paths are resolved against the
// directory of the configuration file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"odpic-bindgen/internal/catalog"
	"odpic-bindgen/internal/driver"
	"odpic-bindgen/internal/logging"
)

const (
	// ConfigName is the base name of the configuration file.
	ConfigName = "odpic-bindgen"
	// EnvPrefix prefixes the environment overrides.
	EnvPrefix = "ODPIC_BINDGEN"
)

// Configuration keys.
const (
	KeyHeader               = "header"
	KeyImplHeader           = "impl_header"
	KeyCatalog              = "catalog"
	KeyRoundTripsRST        = "round_trips_rst"
	KeyOutputDir            = "output_dir"
	KeyPackage              = "package"
	KeyModulePath           = "module_path"
	KeyLibName              = "lib_name"
	KeySeparateBlocking     = "separate_blocking"
	KeyBlockingPackage      = "blocking_package"
	KeyImplPackage          = "impl_package"
	KeyGoVersion            = "go_version"
	KeyTypePattern          = "type_pattern"
	KeyFunctionPattern      = "function_pattern"
	KeyVarPattern           = "var_pattern"
	KeyBitfieldEnums        = "bitfield_enums"
	KeyBitflagsFromHints    = "bitflags_from_hints"
	KeyExtraHeader          = "extra_header"
	KeyAdditionalRoundTrips = "additional_round_trips"
	KeyFailOnUndocumented   = "fail_on_undocumented"
	KeyLogLevel             = "log.level"
	KeyLogPretty            = "log.pretty"
)

// Config is the loaded configuration.
type Config struct {
	Driver driver.Config
	Log    logging.Config
	// File is the configuration file read, empty when none was found.
	File string
}

// RoundTripEntry classifies a function the catalog doesn't list.
type RoundTripEntry struct {
	Name       string `mapstructure:"name"`
	RoundTrips string `mapstructure:"round_trips"`
}

// Load reads the configuration file at path, or odpic-bindgen.yaml in the
// working directory when path is empty. A missing default file is not an
// error; the defaults apply.
func Load(path string) (*Config, error) {
	v := New()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read configuration: %w", err)
			}
		}
	}

	return FromViper(v)
}

// New returns a viper instance carrying the defaults and the environment
// bindings.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := driver.DefaultConfig()
	log := logging.DefaultConfig()

	v.SetDefault(KeyHeader, def.Header)
	v.SetDefault(KeyImplHeader, def.ImplHeader)
	v.SetDefault(KeyCatalog, def.CatalogPath)
	v.SetDefault(KeyRoundTripsRST, def.RoundTripsRST)
	v.SetDefault(KeyOutputDir, def.OutputDir)
	v.SetDefault(KeyPackage, def.Package)
	v.SetDefault(KeyModulePath, def.ModulePath)
	v.SetDefault(KeyLibName, def.LibName)
	v.SetDefault(KeySeparateBlocking, def.SeparateBlocking)
	v.SetDefault(KeyBlockingPackage, def.BlockingPackage)
	v.SetDefault(KeyImplPackage, def.ImplPackage)
	v.SetDefault(KeyGoVersion, def.GoVersion)
	v.SetDefault(KeyTypePattern, def.TypePattern)
	v.SetDefault(KeyFunctionPattern, def.FunctionPattern)
	v.SetDefault(KeyVarPattern, def.VarPattern)
	v.SetDefault(KeyBitfieldEnums, def.BitfieldEnums)
	v.SetDefault(KeyBitflagsFromHints, def.BitflagsFromHints)
	v.SetDefault(KeyExtraHeader, def.ExtraHeader)
	v.SetDefault(KeyFailOnUndocumented, def.FailOnUndocumented)
	v.SetDefault(KeyLogLevel, log.Level)
	v.SetDefault(KeyLogPretty, log.Pretty)

	var extra []map[string]any
	for _, name := range sortedKeys(def.AdditionalRoundTrips) {
		extra = append(extra, map[string]any{
			"name":        name,
			"round_trips": def.AdditionalRoundTrips[name].String(),
		})
	}

	v.SetDefault(KeyAdditionalRoundTrips, extra)

	return v
}

// FromViper converts and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	if err := checkKeys(v); err != nil {
		return nil, err
	}

	cfg := &Config{File: v.ConfigFileUsed()}

	base := ""
	if cfg.File != "" {
		base = filepath.Dir(cfg.File)
	}

	cfg.Driver = driver.Config{
		Header:             resolvePath(base, v.GetString(KeyHeader)),
		ImplHeader:         resolvePath(base, v.GetString(KeyImplHeader)),
		CatalogPath:        resolvePath(base, v.GetString(KeyCatalog)),
		RoundTripsRST:      resolvePath(base, v.GetString(KeyRoundTripsRST)),
		OutputDir:          resolvePath(base, v.GetString(KeyOutputDir)),
		Package:            v.GetString(KeyPackage),
		ModulePath:         v.GetString(KeyModulePath),
		LibName:            v.GetString(KeyLibName),
		SeparateBlocking:   v.GetBool(KeySeparateBlocking),
		BlockingPackage:    v.GetString(KeyBlockingPackage),
		ImplPackage:        v.GetString(KeyImplPackage),
		GoVersion:          v.GetString(KeyGoVersion),
		TypePattern:        v.GetString(KeyTypePattern),
		FunctionPattern:    v.GetString(KeyFunctionPattern),
		VarPattern:         v.GetString(KeyVarPattern),
		BitfieldEnums:      v.GetStringSlice(KeyBitfieldEnums),
		BitflagsFromHints:  v.GetBool(KeyBitflagsFromHints),
		ExtraHeader:        v.GetString(KeyExtraHeader),
		FailOnUndocumented: v.GetBool(KeyFailOnUndocumented),
	}

	var entries []RoundTripEntry
	if err := v.UnmarshalKey(KeyAdditionalRoundTrips, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyAdditionalRoundTrips, err)
	}

	extra, err := roundTrips(entries)
	if err != nil {
		return nil, err
	}

	cfg.Driver.AdditionalRoundTrips = extra

	cfg.Log = logging.Config{
		Level:  v.GetString(KeyLogLevel),
		Pretty: v.GetBool(KeyLogPretty),
	}

	if err := cfg.Driver.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func roundTrips(entries []RoundTripEntry) (map[string]catalog.RoundTrips, error) {
	extra := make(map[string]catalog.RoundTrips, len(entries))

	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%s[%d]: name is required", KeyAdditionalRoundTrips, i)
		}

		r, err := catalog.ParseRoundTrips(e.RoundTrips)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", KeyAdditionalRoundTrips, i, err)
		}

		extra[e.Name] = r
	}

	return extra, nil
}

// checkKeys rejects keys the generator doesn't know.
func checkKeys(v *viper.Viper) error {
	known := []string{
		KeyHeader, KeyImplHeader, KeyCatalog, KeyRoundTripsRST, KeyOutputDir,
		KeyPackage, KeyModulePath, KeyLibName, KeySeparateBlocking,
		KeyBlockingPackage, KeyImplPackage, KeyGoVersion, KeyTypePattern,
		KeyFunctionPattern, KeyVarPattern, KeyBitfieldEnums,
		KeyBitflagsFromHints, KeyExtraHeader, KeyAdditionalRoundTrips,
		KeyFailOnUndocumented, KeyLogLevel, KeyLogPretty,
	}

	var unknown []string

	for _, key := range v.AllKeys() {
		if !slices.Contains(known, key) {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("unknown configuration keys: %s", strings.Join(unknown, ", "))
	}

	return nil
}

func resolvePath(base, p string) string {
	if p == "" || base == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(base, p)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
