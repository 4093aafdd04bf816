// Package config loads and validates rebalance configuration.
package config

// Config is the on-disk configuration.
type Config struct {
	RootDirectory string `toml:"root_directory" yaml:"root_directory" validate:"required"`
	TargetKey     string `toml:"target_key" yaml:"target_key" validate:"required"`
	IDKey         string `toml:"id_key" yaml:"id_key"`
	RowsKey       string `toml:"rows_key" yaml:"rows_key" validate:"required"`
	Extension     string `toml:"extension" yaml:"extension" validate:"required,startswith=."`
	RunsDir       string `toml:"runs_dir" yaml:"runs_dir" validate:"required"`
	Workers       int    `toml:"workers" yaml:"workers" validate:"min=1,max=256"`

	Logging  Logging            `toml:"logging" yaml:"logging"`
	Profiles map[string]Profile `toml:"profiles" yaml:"profiles" validate:"required,min=1,dive"`
	Classify Classify           `toml:"classify" yaml:"classify"`
}

// Logging configures diagnostics. An empty Dir logs to stderr only.
type Logging struct {
	Level      string `toml:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir        string `toml:"dir" yaml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb" validate:"min=1"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days" validate:"min=1"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// Profile is one [profiles.<key>] table. Key names match the settings
// names already used by translators' balancing configs.
type Profile struct {
	DisplayName        string   `toml:"name" yaml:"name"`
	Prefixes           []string `toml:"prefixes" yaml:"prefixes" validate:"dive,required"`
	MaxLines           int      `toml:"max_lines" yaml:"max_lines" validate:"min=1,max=3"`
	SplitThresholdFor2 int      `toml:"split_threshold_for_2" yaml:"split_threshold_for_2" validate:"min=0"`
	SplitThresholdFor3 int      `toml:"split_threshold_for_3" yaml:"split_threshold_for_3" validate:"gtefield=SplitThresholdFor2"`
	AbsoluteMaxWidth   int      `toml:"absolute_max_width" yaml:"absolute_max_width" validate:"min=1"`
	Metric             string   `toml:"metric" yaml:"metric" validate:"omitempty,oneof=codepoints graphemes cells"`
}

// Classify names the long-form and short-form profiles and describes the
// families that belong to either depending on a trailing letter.
type Classify struct {
	LongForm      string   `toml:"long_form" yaml:"long_form" validate:"required,nefield=ShortForm"`
	ShortForm     string   `toml:"short_form" yaml:"short_form" validate:"required"`
	MixedPattern  string   `toml:"mixed_pattern" yaml:"mixed_pattern"`
	MixedSuffixes []string `toml:"mixed_suffixes" yaml:"mixed_suffixes" validate:"dive,len=1,alpha"`
	MixedFamilies []string `toml:"mixed_families" yaml:"mixed_families" validate:"dive,required"`
}
