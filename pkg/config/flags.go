package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands.
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "mock.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag registry keys to Flag structs.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagListen       = "listen"
	FlagFixtures     = "fixtures"
	FlagNoFallback   = "no-fallback"
	FlagRecordDriver = "record-driver"
	FlagSQLite       = "sqlite"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
	FlagLogFile      = "log-file"
)

// Flags is the shared flag registry for weft commands.
var Flags = FlagSet{
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "mock.listen",
		Description: "address the mock server listens on",
	},
	FlagFixtures: {
		Name:        "fixtures",
		Shorthand:   "f",
		ViperKey:    "mock.fixtures",
		Description: "path to a TOML fixture file to serve",
	},
	FlagNoFallback: {
		Name:        "no-fallback",
		ViperKey:    "mock.no_fallback",
		Description: "disable generated responses for handlerless endpoints",
	},
	FlagRecordDriver: {
		Name:        "record-driver",
		ViperKey:    "record.driver",
		Description: "exchange store backend (memory or sqlite)",
	},
	FlagSQLite: {
		Name:        "sqlite",
		ViperKey:    "record.sqlite_path",
		Description: "path to the sqlite exchange database",
	},
	FlagLogLevel: {
		Name:        "log-level",
		ViperKey:    "log.level",
		Description: "minimum log level (debug, info, warn, error)",
	},
	FlagLogFormat: {
		Name:        "log-format",
		ViperKey:    "log.format",
		Description: "log output format (pretty, json, text)",
	},
	FlagLogFile: {
		Name:        "log-file",
		ViperKey:    "log.file",
		Description: "file that receives a JSON copy of the log stream",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
