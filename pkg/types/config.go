package types

import (
	"path/filepath"
	"time"
)

const (
	// DefaultIgnoreExtension is the extension exempt from renaming when the
	// user does not supply one.
	DefaultIgnoreExtension = ".doc"

	// BackupDirName is the subdirectory that receives copies of the originals.
	BackupDirName = "originals"

	// RenamedExtension is appended to every file the rename stage touches.
	RenamedExtension = ".wpd"

	// PDFExtension is appended to every converted file name.
	PDFExtension = ".pdf"
)

// Mode selects between the historical behavior of the tool and the
// corrected one.
type Mode string

const (
	// ModeCompat reproduces the observed behavior: a hard-coded backup ignore
	// set and a substring "already backed up" check.
	ModeCompat Mode = "compat"

	// ModeStrict lets the configured ignore extension govern every stage and
	// renames only files with a verified backup copy.
	ModeStrict Mode = "strict"
)

// Engine identifies the conversion backend.
type Engine string

const (
	EngineSoffice   Engine = "soffice"
	EngineContainer Engine = "container"
)

// Config holds the settings for one run. It is built once by the option
// parser and passed by value into every stage.
type Config struct {
	// Directory is the absolute path of the directory to convert.
	Directory string `json:"directory" yaml:"directory"`

	// IgnoreExtension always begins with a dot (e.g. ".doc").
	IgnoreExtension string `json:"ignore_extension" yaml:"ignore_extension"`

	// Verbose enables debug logging.
	Verbose bool `json:"verbose" yaml:"verbose"`

	Mode   Mode   `json:"mode" yaml:"mode"`
	Engine Engine `json:"engine" yaml:"engine"`

	// SofficeBin overrides the LibreOffice binary lookup.
	SofficeBin string `json:"soffice_bin,omitempty" yaml:"soffice_bin,omitempty"`

	// Image is the container image used by the container engine.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// Timeout bounds a single conversion. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Retries is the number of extra attempts after a failed conversion.
	Retries int `json:"retries" yaml:"retries"`

	// KeepGoing continues past per-file failures instead of aborting.
	KeepGoing bool `json:"keep_going" yaml:"keep_going"`

	// DryRun reports planned actions without touching the filesystem.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// LedgerPath is the sqlite run history database. Empty disables it.
	LedgerPath string `json:"ledger_path,omitempty" yaml:"ledger_path,omitempty"`

	// ReportPath receives a YAML or JSON run report. Empty disables it.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`

	// LogJSON switches log output from text to JSON records.
	LogJSON bool `json:"log_json" yaml:"log_json"`
}

// BackupDir returns the absolute path of the backup subdirectory.
func (c Config) BackupDir() string {
	return filepath.Join(c.Directory, BackupDirName)
}
