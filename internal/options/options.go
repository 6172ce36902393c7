// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package options turns command-line flags and WPCONVERT_* environment
// variables into a types.Config.
package options

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/wpconvert/pkg/types"
)

// EnvPrefix is the prefix of environment variables that mirror flags
// (e.g. WPCONVERT_IGNORE for --ignore).
const EnvPrefix = "WPCONVERT"

// Flag names.
const (
	FlagDir       = "dir"
	FlagIgnore    = "ignore"
	FlagVerbose   = "verbose"
	FlagMode      = "mode"
	FlagEngine    = "engine"
	FlagSoffice   = "soffice"
	FlagImage     = "image"
	FlagTimeout   = "timeout"
	FlagRetries   = "retries"
	FlagKeepGoing = "keep-going"
	FlagDryRun    = "dry-run"
	FlagLedger    = "ledger"
	FlagReport    = "report"
	FlagLogJSON   = "log-json"
)

// RegisterFlags adds the conversion flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagDir, "d", ".", "path for WordPerfect files to convert (makes a backup of all files)")
	fs.StringP(FlagIgnore, "i", types.DefaultIgnoreExtension, "file extension to ignore")
	// A bare -i means the default extension.
	fs.Lookup(FlagIgnore).NoOptDefVal = types.DefaultIgnoreExtension
	fs.BoolP(FlagVerbose, "v", false, "run verbosely")

	fs.String(FlagMode, string(types.ModeCompat), "stage behavior: compat (historical) or strict (single ignore rule, verified backups)")
	fs.String(FlagEngine, string(types.EngineSoffice), "conversion engine: soffice or container")
	fs.String(FlagSoffice, "", "LibreOffice binary (default: soffice, then libreoffice on PATH)")
	fs.String(FlagImage, "", "container image for the container engine")
	fs.Duration(FlagTimeout, 0, "per-file conversion timeout (0 = none)")
	fs.Int(FlagRetries, 0, "extra attempts after a failed conversion")
	fs.Bool(FlagKeepGoing, false, "continue past per-file failures and report them at the end")
	fs.Bool(FlagDryRun, false, "print planned actions without changing anything")
	fs.String(FlagLedger, "", "sqlite database recording run history")
	fs.String(FlagReport, "", "write a run report (.yaml, .yml or .json)")
	fs.Bool(FlagLogJSON, false, "write log records as JSON")
}

// TakeIgnoreArg lets the extension follow a bare -i as a separate word
// ("-i pdf"). With an optional value pflag leaves that word as a positional
// argument; it is moved back into the ignore flag here. Any other positional
// argument is an error.
func TakeIgnoreArg(fs *pflag.FlagSet, args []string) error {
	if len(args) == 0 {
		return nil
	}
	f := fs.Lookup(FlagIgnore)
	if len(args) > 1 || !f.Changed || f.Value.String() != f.NoOptDefVal {
		return fmt.Errorf("unexpected argument %q", args[len(args)-1])
	}
	return fs.Set(FlagIgnore, args[0])
}

// NewViper returns a viper instance bound to fs and the WPCONVERT_*
// environment.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	return v, nil
}

// NormalizeExtension makes ext begin with exactly one leading dot. An empty
// value falls back to the default ignore extension.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return types.DefaultIgnoreExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Resolve reads the bound settings and produces a validated Config. The
// directory is made absolute.
func Resolve(v *viper.Viper) (types.Config, error) {
	dir := v.GetString(FlagDir)
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolving directory %s: %w", dir, err)
	}

	cfg := types.Config{
		Directory:       abs,
		IgnoreExtension: NormalizeExtension(v.GetString(FlagIgnore)),
		Verbose:         v.GetBool(FlagVerbose),
		Mode:            types.Mode(v.GetString(FlagMode)),
		Engine:          types.Engine(v.GetString(FlagEngine)),
		SofficeBin:      v.GetString(FlagSoffice),
		Image:           v.GetString(FlagImage),
		Timeout:         v.GetDuration(FlagTimeout),
		Retries:         v.GetInt(FlagRetries),
		KeepGoing:       v.GetBool(FlagKeepGoing),
		DryRun:          v.GetBool(FlagDryRun),
		LedgerPath:      v.GetString(FlagLedger),
		ReportPath:      v.GetString(FlagReport),
		LogJSON:         v.GetBool(FlagLogJSON),
	}

	switch cfg.Mode {
	case "":
		cfg.Mode = types.ModeCompat
	case types.ModeCompat, types.ModeStrict:
	default:
		return types.Config{}, fmt.Errorf("unsupported mode %q: use compat or strict", cfg.Mode)
	}

	switch cfg.Engine {
	case "":
		cfg.Engine = types.EngineSoffice
	case types.EngineSoffice, types.EngineContainer:
	default:
		return types.Config{}, fmt.Errorf("unsupported engine %q: use soffice or container", cfg.Engine)
	}

	if cfg.Timeout < 0 {
		return types.Config{}, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if cfg.Retries < 0 {
		return types.Config{}, fmt.Errorf("retries must not be negative, got %d", cfg.Retries)
	}

	return cfg, nil
}
