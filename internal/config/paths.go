package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths centralizes filesystem layout for the pipeline. All authored and
// generated files live under one base directory:
//
//	base/
//	  templates/    bare parameter templates (the authoring surface)
//	  networks/     curated network inclusion files
//	  calibration/  external calibration sources
//	  audit/        expanded tables persisted for audit/replay
//	  logs/
type Paths struct {
	BaseDir        string
	TemplatesDir   string
	NetworksDir    string
	CalibrationDir string
	AuditDir       string
	LogsDir        string
}

// NewPaths builds the path layout from configuration, resolving every
// unset directory relative to the base directory.
func NewPaths(cfg PathsConfig) *Paths {
	base := cfg.BaseDir
	if base == "" {
		base = "data"
	}
	p := &Paths{
		BaseDir:        base,
		TemplatesDir:   cfg.TemplatesDir,
		NetworksDir:    cfg.NetworksDir,
		CalibrationDir: cfg.CalibrationDir,
		AuditDir:       cfg.AuditDir,
		LogsDir:        cfg.LogsDir,
	}
	if p.TemplatesDir == "" {
		p.TemplatesDir = filepath.Join(base, "templates")
	}
	if p.NetworksDir == "" {
		p.NetworksDir = filepath.Join(base, "networks")
	}
	if p.CalibrationDir == "" {
		p.CalibrationDir = filepath.Join(base, "calibration")
	}
	if p.AuditDir == "" {
		p.AuditDir = filepath.Join(base, "audit")
	}
	if p.LogsDir == "" {
		p.LogsDir = filepath.Join(base, "logs")
	}
	return p
}

// EnsureDirectories creates every directory in the layout.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.BaseDir, p.TemplatesDir, p.NetworksDir, p.CalibrationDir, p.AuditDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// TemplatePath returns the authoring path for one parameter template.
func (p *Paths) TemplatePath(technology, parameter string) string {
	return filepath.Join(p.TemplatesDir, fmt.Sprintf("%s_%s.csv", technology, parameter))
}

// NetworkPath returns the curated network file path for a technology.
func (p *Paths) NetworkPath(technology string) string {
	return filepath.Join(p.NetworksDir, fmt.Sprintf("%s_network.csv", technology))
}

// CalibrationPath resolves a calibration source file name.
func (p *Paths) CalibrationPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.CalibrationDir, name)
}

// AuditPath returns the audit dump path for one expanded table.
func (p *Paths) AuditPath(technology, parameter string) string {
	return filepath.Join(p.AuditDir, fmt.Sprintf("%s_%s.csv", technology, parameter))
}

// LogPathResolution logs the resolved layout for debugging.
func (p *Paths) LogPathResolution() {
	slog.Debug("resolved path layout",
		slog.String("base", p.BaseDir),
		slog.String("templates", p.TemplatesDir),
		slog.String("networks", p.NetworksDir),
		slog.String("calibration", p.CalibrationDir),
		slog.String("audit", p.AuditDir),
		slog.String("logs", p.LogsDir))
}
