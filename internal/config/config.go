/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user-scope YAML configuration of siteplan and
// applies SITEPLAN_* environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"siteplan/internal/dimension"
	"siteplan/internal/geom"
	"siteplan/internal/gesture"
	applog "siteplan/internal/log"
	"siteplan/internal/snap"
	"siteplan/internal/units"
)

// EditorConfig mirrors the editor settings the engine consumes.
type EditorConfig struct {
	Scale          units.Scale `yaml:"scale"`
	GridEnabled    bool        `yaml:"grid_enabled"`
	GridSize       float64     `yaml:"grid_size"`
	SnapToGrid     bool        `yaml:"snap_to_grid"`
	AutoAlign      bool        `yaml:"auto_align"`
	AlignThreshold float64     `yaml:"align_threshold"`
}

type DimensionConfig struct {
	Offset    float64 `yaml:"offset"`
	ArrowSize float64 `yaml:"arrow_size"`
	Color     string  `yaml:"color"` // #rrggbb or #rrggbbaa
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty means DataPath("history.db")
}

type ReportConfig struct {
	PageSize    string `yaml:"page_size"`   // A3, A4, Letter, ...
	Orientation string `yaml:"orientation"` // P or L
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.
type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	Editor        EditorConfig    `yaml:"editor"`
	Dimension     DimensionConfig `yaml:"dimension"`
	History       HistoryConfig   `yaml:"history"`
	Report        ReportConfig    `yaml:"report"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults: a 1:100 plan on a 96 dpi screen,
// a 20 px grid and a 10 px alignment tolerance.
func Defaults() AppConfig {
	scale, _ := units.FromRatio("1:100", 100, units.ScreenDPI)
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			Scale:          scale,
			GridEnabled:    true,
			GridSize:       20,
			SnapToGrid:     false,
			AutoAlign:      true,
			AlignThreshold: gesture.DefaultAlignThreshold,
		},
		Dimension: DimensionConfig{
			Offset:    dimension.DefaultOffset,
			ArrowSize: dimension.DefaultArrowSize,
			Color:     dimension.HexColor(dimension.DefaultColor),
		},
		History: HistoryConfig{Enabled: true},
		Report:  ReportConfig{PageSize: "A4", Orientation: "P"},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "SITEPLAN_CONFIG"
	EnvPixelsPerMeter = "SITEPLAN_PIXELS_PER_METER"
	EnvScaleLabel     = "SITEPLAN_SCALE_LABEL"
	EnvGridSize       = "SITEPLAN_GRID_SIZE"
	EnvSnapToGrid     = "SITEPLAN_SNAP_TO_GRID"
	EnvAutoAlign      = "SITEPLAN_AUTO_ALIGN"
	EnvAlignThreshold = "SITEPLAN_ALIGN_THRESHOLD"
	EnvHistoryDB      = "SITEPLAN_HISTORY_DB"
	// EnvLogLevel Logging envs, shared with the log package
	EnvLogLevel  = applog.EnvLevel
	EnvLogFormat = applog.EnvFormat
	EnvLogSource = applog.EnvSource
	EnvLogFile   = applog.EnvFile
)

// ConfigPath returns the per-user config file path. SITEPLAN_CONFIG wins.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	base, err := userDir(false)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DataPath returns name inside the per-user data directory.
func DataPath(name string) (string, error) {
	base, err := userDir(true)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}

func userDir(data bool) (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Siteplan")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Siteplan")
	default: // linux and others
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		if data {
			base = filepath.Join(home, ".local", "share", "siteplan")
		} else {
			base = filepath.Join(home, ".config", "siteplan")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file yields the defaults;
// a malformed one is an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML to ConfigPath.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// editor
	if strings.TrimSpace(src.Editor.Scale.Label) != "" {
		dst.Editor.Scale.Label = strings.TrimSpace(src.Editor.Scale.Label)
	}
	if src.Editor.Scale.MetersPerUnit != 0 {
		dst.Editor.Scale.MetersPerUnit = src.Editor.Scale.MetersPerUnit
	}
	if src.Editor.Scale.PixelsPerMeter != 0 {
		dst.Editor.Scale.PixelsPerMeter = src.Editor.Scale.PixelsPerMeter
	}
	if src.Editor.GridSize != 0 {
		dst.Editor.GridSize = src.Editor.GridSize
	}
	if src.Editor.AlignThreshold != 0 {
		dst.Editor.AlignThreshold = src.Editor.AlignThreshold
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Editor.GridEnabled = src.Editor.GridEnabled
	dst.Editor.SnapToGrid = src.Editor.SnapToGrid
	dst.Editor.AutoAlign = src.Editor.AutoAlign
	// dimension
	if src.Dimension.Offset != 0 {
		dst.Dimension.Offset = src.Dimension.Offset
	}
	if src.Dimension.ArrowSize != 0 {
		dst.Dimension.ArrowSize = src.Dimension.ArrowSize
	}
	if strings.TrimSpace(src.Dimension.Color) != "" {
		dst.Dimension.Color = strings.ToLower(strings.TrimSpace(src.Dimension.Color))
	}
	// history
	dst.History.Enabled = src.History.Enabled
	if strings.TrimSpace(src.History.Path) != "" {
		dst.History.Path = strings.TrimSpace(src.History.Path)
	}
	// report
	if strings.TrimSpace(src.Report.PageSize) != "" {
		dst.Report.PageSize = strings.TrimSpace(src.Report.PageSize)
	}
	if strings.TrimSpace(src.Report.Orientation) != "" {
		dst.Report.Orientation = strings.ToUpper(strings.TrimSpace(src.Report.Orientation))
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvPixelsPerMeter)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Editor.Scale.PixelsPerMeter = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvScaleLabel)); v != "" {
		cfg.Editor.Scale.Label = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGridSize)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Editor.GridSize = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapToGrid)); v != "" {
		cfg.Editor.SnapToGrid = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutoAlign)); v != "" {
		cfg.Editor.AutoAlign = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAlignThreshold)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Editor.AlignThreshold = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDB)); v != "" {
		cfg.History.Path = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"editor.scale.pixels_per_meter": EnvPixelsPerMeter,
	"editor.scale.label":            EnvScaleLabel,
	"editor.grid_size":              EnvGridSize,
	"editor.snap_to_grid":           EnvSnapToGrid,
	"editor.auto_align":             EnvAutoAlign,
	"editor.align_threshold":        EnvAlignThreshold,
	"history.path":                  EnvHistoryDB,
	"logging.level":                 EnvLogLevel,
	"logging.format":                EnvLogFormat,
	"logging.source":                EnvLogSource,
	"logging.file":                  EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Validate reports geom.ErrInvalidConfiguration for values the engine cannot run with.
func (c AppConfig) Validate() error {
	if err := c.Editor.Scale.Validate(); err != nil {
		return err
	}
	if c.Editor.GridEnabled || c.Editor.SnapToGrid {
		if err := (snap.GridConfig{Size: c.Editor.GridSize, Enabled: true}).Validate(); err != nil {
			return err
		}
	}
	if c.Editor.AutoAlign && !(c.Editor.AlignThreshold > 0) {
		return fmt.Errorf("align_threshold %v: %w", c.Editor.AlignThreshold, geom.ErrInvalidConfiguration)
	}
	if math.IsNaN(c.Dimension.Offset) || math.IsInf(c.Dimension.Offset, 0) {
		return fmt.Errorf("dimension offset %v: %w", c.Dimension.Offset, geom.ErrInvalidConfiguration)
	}
	if c.Dimension.ArrowSize < 0 {
		return fmt.Errorf("dimension arrow_size %v: %w", c.Dimension.ArrowSize, geom.ErrInvalidConfiguration)
	}
	if _, err := dimension.ParseColor(c.Dimension.Color); err != nil {
		return err
	}
	if o := c.Report.Orientation; o != "" && o != "P" && o != "L" {
		return fmt.Errorf("report orientation %q: %w", o, geom.ErrInvalidConfiguration)
	}
	return nil
}

// Engine converts the editor and dimension sections into the gesture
// engine's configuration.
func (c AppConfig) Engine() (gesture.Config, error) {
	if err := c.Validate(); err != nil {
		return gesture.Config{}, err
	}
	col, _ := dimension.ParseColor(c.Dimension.Color)
	return gesture.Config{
		Scale:          c.Editor.Scale,
		Grid:           snap.GridConfig{Size: c.Editor.GridSize, Enabled: c.Editor.GridEnabled},
		SnapToGrid:     c.Editor.SnapToGrid,
		AutoAlign:      c.Editor.AutoAlign,
		AlignThreshold: c.Editor.AlignThreshold,
		Dimension: dimension.Options{
			Offset:    c.Dimension.Offset,
			ArrowSize: c.Dimension.ArrowSize,
			Color:     col,
			Scale:     c.Editor.Scale,
		},
	}, nil
}

// LogOptions converts the logging section for log.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

// HistoryPath resolves the measurement history database location.
func (h HistoryConfig) HistoryPath() (string, error) {
	if strings.TrimSpace(h.Path) != "" {
		return h.Path, nil
	}
	return DataPath("history.db")
}
