package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "BITFARM"

	configDir = ".bitfarm"
)

// Range is an inclusive integer interval used for randomized values.
type Range struct {
	Min int
	Max int
}

// DurationRange is an inclusive interval of seconds used for jittered
// sleeps.
type DurationRange struct {
	Min time.Duration
	Max time.Duration
}

type VoucherSettings struct {
	Enabled       bool
	MinBalance    int64
	Percent       float64
	TargetSession string
	StorageFile   string
}

type MiniGameSettings struct {
	Enabled  bool
	Score    Range
	Duration DurationRange
}

// Settings is the full process configuration. It is loaded once and
// passed into every component at construction; nothing reads it through
// a package global.
type Settings struct {
	BaseURL        string
	AdPlatformURL  string
	AdPlacementID  string
	AccountsPath   string
	ProxiesPath    string
	ProxyProbeURL  string
	RefID          string
	FallbackRefID  string
	ClanName       string
	UseProxy       bool
	Subscribe      bool
	Debug          bool
	TokenLifetime  time.Duration
	StartDelayMax  time.Duration
	ActionDelay    DurationRange
	SessionJitter  DurationRange
	DownloadSpeed  Range
	UploadSpeed    Range
	Vouchers       VoucherSettings
	MiniGame       MiniGameSettings
	TaskPolicies   map[domain.TaskKind]domain.TaskPolicy
}

// TaskPolicy resolves the policy for a kind, falling back to the safe
// default (disabled, bounded attempts) for unmapped kinds.
func (s Settings) TaskPolicy(kind domain.TaskKind) domain.TaskPolicy {
	policy, ok := s.TaskPolicies[kind]
	if !ok {
		return domain.DefaultTaskPolicy()
	}
	if kind == domain.TaskSubscription {
		policy.Enabled = s.Subscribe
	}
	return policy
}

func defaultTaskPolicies() map[domain.TaskKind]domain.TaskPolicy {
	return map[domain.TaskKind]domain.TaskPolicy{
		domain.TaskSubscription:    {Attempts: 10, Delay: 5 * time.Second, Enabled: false},
		domain.TaskSocialFollow:    {Attempts: 3, Delay: 2 * time.Second, Enabled: true},
		domain.TaskClanJoin:        {Attempts: 3, Delay: 2 * time.Second, Enabled: true},
		domain.TaskHomeScreen:      {Attempts: 4, Delay: 3 * time.Second, Enabled: true},
		domain.TaskStory:           {Attempts: 4, Delay: 3 * time.Second, Enabled: true},
		domain.TaskMiningBot:       {Attempts: 4, Delay: 3 * time.Second, Enabled: false},
		domain.TaskRewardedAd:      {Attempts: 4, Delay: 3 * time.Second, Enabled: false},
		domain.TaskReferrals:       {Attempts: 1, Delay: time.Second, Enabled: true},
		domain.TaskBlockchainPromo: {Attempts: 1, Delay: time.Second, Enabled: false},
	}
}

func setDefaults(cfg *viper.Viper, home string) {
	cfg.SetDefault("base_url", "https://bitappprod.com/api")
	cfg.SetDefault("ad_platform_url", "https://api.adsgram.ai")
	cfg.SetDefault("ad_placement_id", "5681")
	cfg.SetDefault("accounts_path", filepath.Join(home, configDir, "accounts.toml"))
	cfg.SetDefault("proxies_path", filepath.Join(home, configDir, "proxies.txt"))
	cfg.SetDefault("proxy_probe_url", "https://ifconfig.me/ip")
	cfg.SetDefault("ref_id", "ref_MjI4NjE4Nzk5")
	cfg.SetDefault("fallback_ref_id", "ref_MjI4NjE4Nzk5")
	cfg.SetDefault("clan_name", "MAINE Crypto")
	cfg.SetDefault("use_proxy", true)
	cfg.SetDefault("subscribe_telegram", false)
	cfg.SetDefault("debug", false)
	cfg.SetDefault("token_lifetime_seconds", 7200)
	cfg.SetDefault("session_start_delay_seconds", 360)
	cfg.SetDefault("action_delay_seconds", []int{2, 10})
	cfg.SetDefault("session_wait_delay_seconds", []int{1, 80})
	cfg.SetDefault("download_speed", []int{50, 250})
	cfg.SetDefault("upload_speed", []int{10, 50})
	cfg.SetDefault("vouchers.enabled", false)
	cfg.SetDefault("vouchers.min_balance", 10)
	cfg.SetDefault("vouchers.percent", 10.0)
	cfg.SetDefault("vouchers.target_session", "")
	cfg.SetDefault("vouchers.storage_file", filepath.Join(home, configDir, "vouchers.json"))
	cfg.SetDefault("minigame.enabled", false)
	cfg.SetDefault("minigame.score", []int{300, 1556})
	cfg.SetDefault("minigame.duration_seconds", []int{60, 180})
}

// Load reads config.toml (if present) and the BITFARM_* environment,
// returning a fully-populated Settings value.
func Load(cfg *viper.Viper) (Settings, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Settings{}, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(home, configDir))
	cfg.AddConfigPath(".")
	cfg.SetEnvPrefix(envPrefix)
	cfg.AutomaticEnv()
	setDefaults(cfg, home)

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	settings := Settings{
		BaseURL:       cfg.GetString("base_url"),
		AdPlatformURL: cfg.GetString("ad_platform_url"),
		AdPlacementID: cfg.GetString("ad_placement_id"),
		AccountsPath:  cfg.GetString("accounts_path"),
		ProxiesPath:   cfg.GetString("proxies_path"),
		ProxyProbeURL: cfg.GetString("proxy_probe_url"),
		RefID:         cfg.GetString("ref_id"),
		FallbackRefID: cfg.GetString("fallback_ref_id"),
		ClanName:      cfg.GetString("clan_name"),
		UseProxy:      cfg.GetBool("use_proxy"),
		Subscribe:     cfg.GetBool("subscribe_telegram"),
		Debug:         cfg.GetBool("debug"),
		TokenLifetime: time.Duration(cfg.GetInt("token_lifetime_seconds")) * time.Second,
		StartDelayMax: time.Duration(cfg.GetInt("session_start_delay_seconds")) * time.Second,
		ActionDelay:   durationRange(cfg, "action_delay_seconds"),
		SessionJitter: durationRange(cfg, "session_wait_delay_seconds"),
		DownloadSpeed: intRange(cfg, "download_speed"),
		UploadSpeed:   intRange(cfg, "upload_speed"),
		Vouchers: VoucherSettings{
			Enabled:       cfg.GetBool("vouchers.enabled"),
			MinBalance:    cfg.GetInt64("vouchers.min_balance"),
			Percent:       cfg.GetFloat64("vouchers.percent"),
			TargetSession: cfg.GetString("vouchers.target_session"),
			StorageFile:   cfg.GetString("vouchers.storage_file"),
		},
		MiniGame: MiniGameSettings{
			Enabled:  cfg.GetBool("minigame.enabled"),
			Score:    intRange(cfg, "minigame.score"),
			Duration: durationRange(cfg, "minigame.duration_seconds"),
		},
		TaskPolicies: defaultTaskPolicies(),
	}

	if settings.BaseURL == "" {
		return Settings{}, errors.New("base_url is empty")
	}
	if settings.Vouchers.Percent < 0 || settings.Vouchers.Percent > 100 {
		return Settings{}, fmt.Errorf("vouchers.percent out of range: %v", settings.Vouchers.Percent)
	}

	return settings, nil
}

func intRange(cfg *viper.Viper, key string) Range {
	bounds := cfg.GetIntSlice(key)
	if len(bounds) != 2 || bounds[0] > bounds[1] {
		return Range{}
	}
	return Range{Min: bounds[0], Max: bounds[1]}
}

func durationRange(cfg *viper.Viper, key string) DurationRange {
	bounds := intRange(cfg, key)
	return DurationRange{
		Min: time.Duration(bounds.Min) * time.Second,
		Max: time.Duration(bounds.Max) * time.Second,
	}
}
