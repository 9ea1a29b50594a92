package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Upstream UpstreamSettings `json:"upstream"`
	Search   SearchSettings   `json:"search"`
	Store    StoreSettings    `json:"store"`
	Cache    CacheSettings    `json:"cache"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// UpstreamSettings holds everything the protocol clients need to talk to the
// video platforms. Signing material lives here rather than in code: the
// upstream deployments rotate keys without notice, and a config edit is a
// cheaper fix than a rebuild.
type UpstreamSettings struct {
	// BridgeServer is the third-party aggregation endpoint used as a
	// last-resort comment source.
	BridgeServer string `json:"bridgeServer"`
	// VodServer is the catalog endpoint backing the vod search provider.
	// Empty disables the provider.
	VodServer string `json:"vodServer"`

	RequestTimeoutSec int `json:"requestTimeoutSec"`
	MaxRetryCount     int `json:"maxRetryCount"`

	// YoukuConcurrency bounds the batched danmaku window requests. Youku
	// rate-limits aggressively; values above 16 are clamped.
	YoukuConcurrency int    `json:"youkuConcurrency"`
	YoukuMsgSignKey  string `json:"youkuMsgSignKey"`

	BilibiliCookie string `json:"bilibiliCookie"`

	RenrenAESKey     string `json:"renrenAesKey"`
	RenrenSignSecret string `json:"renrenSignSecret"`

	// AllowedPlatforms filters which play-link platforms search providers
	// surface (360kan/vod site keys, e.g. "qiyi", "qq").
	AllowedPlatforms []string `json:"allowedPlatforms"`
}

type SearchSettings struct {
	Providers       []string `json:"providers"`
	MaxResults      int      `json:"maxResults"`
	CacheTTLMinutes int      `json:"cacheTtlMinutes"`
}

type StoreSettings struct {
	MaxPrograms int `json:"maxPrograms"`
	MaxEpisodes int `json:"maxEpisodes"`
}

type CacheSettings struct {
	// Driver selects the search-cache backend: "memory" or "sqlite".
	Driver string `json:"driver"`
	// Path is the sqlite database file when the sqlite driver is selected.
	Path string `json:"path"`
}

type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`    // megabytes
	MaxBackups int    `json:"maxBackups"` // number of old files to keep
	MaxAge     int    `json:"maxAge"`     // days
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 9321},
		Upstream: UpstreamSettings{
			BridgeServer:      "https://api.danmu.icu",
			VodServer:         "https://www.caiji.cyou",
			RequestTimeoutSec: 30,
			MaxRetryCount:     3,
			YoukuConcurrency:  8,
			YoukuMsgSignKey:   "MkmC9SoIw6xCkSKHhJ7b5D2r51kBiREr",
			BilibiliCookie:    "",
			RenrenAESKey:      "3b744389882a4067",
			RenrenSignSecret:  "ES513W0B1CsdUrR13Qk5EgDAKPeeKZY",
			AllowedPlatforms:  []string{"qiyi", "bilibili1", "imgo", "youku", "qq"},
		},
		Search: SearchSettings{
			Providers:       []string{"360kan", "vod", "renren", "hanjutv"},
			MaxResults:      50,
			CacheTTLMinutes: 30,
		},
		Store: StoreSettings{MaxPrograms: 100, MaxEpisodes: 1000},
		Cache: CacheSettings{Driver: "memory", Path: "cache/search.db"},
		Log: LogConfig{
			File:       "cache/logs/barrage.log",
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Validate rejects configurations the services cannot start with. These are
// fatal at startup, never per-request.
func (s Settings) Validate() error {
	var errs []string
	if s.Upstream.BridgeServer != "" && !isHTTPURL(s.Upstream.BridgeServer) {
		errs = append(errs, "upstream.bridgeServer must be an http(s) URL")
	}
	if s.Upstream.VodServer != "" && !isHTTPURL(s.Upstream.VodServer) {
		errs = append(errs, "upstream.vodServer must be an http(s) URL")
	}
	if s.Upstream.RequestTimeoutSec <= 0 {
		errs = append(errs, "upstream.requestTimeoutSec must be greater than 0")
	}
	if s.Upstream.MaxRetryCount < 0 {
		errs = append(errs, "upstream.maxRetryCount must be non-negative")
	}
	if s.Store.MaxPrograms <= 0 || s.Store.MaxEpisodes <= 0 {
		errs = append(errs, "store capacities must be greater than 0")
	}
	if d := s.Cache.Driver; d != "" && d != "memory" && d != "sqlite" {
		errs = append(errs, fmt.Sprintf("cache.driver %q not supported (memory, sqlite)", d))
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// YoukuBatchSize returns the effective concurrency for Youku window requests.
func (s Settings) YoukuBatchSize() int {
	n := s.Upstream.YoukuConcurrency
	if n <= 0 {
		n = 8
	}
	if n > 16 {
		n = 16
	}
	return n
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		return Settings{}, err
	}

	// Start from defaults so new fields get sensible values when an older
	// settings file is loaded.
	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", m.path, err)
	}
	return settings, nil
}

// Save writes settings to disk atomically.
func (m *Manager) Save(settings Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
