package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Collector  CollectorConfig  `yaml:"collector"`
	Store      StoreConfig      `yaml:"store"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type YouTubeConfig struct {
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`

	// Quota accounting. Costs mirror the Data API v3 price sheet.
	DailyQuota        int `yaml:"daily_quota"`
	SearchCost        int `yaml:"search_cost"`
	PlaylistItemsCost int `yaml:"playlist_items_cost"`
	VideoBatchCost    int `yaml:"video_batch_cost"`
	ChannelCost       int `yaml:"channel_cost"`
}

type CollectorConfig struct {
	MinCourseDurationMin    int                 `yaml:"min_course_duration_min"`
	MinLessons              int                 `yaml:"min_lessons"`
	MaxPlaylistsPerCategory int                 `yaml:"max_playlists_per_category"`
	Categories              []string            `yaml:"categories"`
	Keywords                map[string][]string `yaml:"keywords"`

	// PrunePaywalled keeps a course after dropping its non-free lessons
	// instead of rejecting it wholesale.
	PrunePaywalled bool `yaml:"prune_paywalled"`

	// ReverifyUnchanged re-checks free access on courses the dedup index
	// already knows, at the cost of extra video-detail calls.
	ReverifyUnchanged bool `yaml:"reverify_unchanged"`
}

type StoreConfig struct {
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`
}

type EmbeddingsConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model   string `yaml:"model"`
}

type EmailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// DefaultCategories is the fixed 16-value taxonomy. Order matters: it is the
// deterministic tie-break priority used by the categorizer.
var DefaultCategories = []string{
	"AI/ML",
	"Web Dev",
	"Data Science",
	"Mobile",
	"Cloud",
	"Cybersecurity",
	"DevOps",
	"Programming",
	"Database",
	"Design",
	"Game Dev",
	"Blockchain",
	"Networking",
	"Embedded",
	"Math",
	"Other",
}

// DefaultKeywords maps categories to the search phrases used for discovery.
var DefaultKeywords = map[string][]string{
	"AI/ML":         {"machine learning course", "deep learning tutorial", "neural networks tutorial", "pytorch tutorial"},
	"Web Dev":       {"web development course", "javascript tutorial", "react course", "full stack development"},
	"Data Science":  {"data science course", "python data analysis", "pandas tutorial", "data visualization"},
	"Mobile":        {"android development course", "ios development tutorial", "flutter tutorial", "swift course"},
	"Cloud":         {"aws course", "azure tutorial", "google cloud course", "kubernetes tutorial"},
	"Cybersecurity": {"cybersecurity course", "ethical hacking tutorial", "network security course"},
	"DevOps":        {"devops course", "ci/cd tutorial", "terraform tutorial", "ansible course"},
	"Programming":   {"python programming course", "java tutorial", "go programming tutorial", "rust course"},
	"Database":      {"database course", "sql tutorial", "postgresql tutorial", "mongodb course"},
	"Design":        {"ui design course", "ux design tutorial", "figma tutorial", "graphic design course"},
	"Game Dev":      {"game development course", "unity tutorial", "unreal engine course", "godot tutorial"},
	"Blockchain":    {"blockchain course", "solidity tutorial", "smart contracts course", "web3 tutorial"},
	"Networking":    {"computer networking course", "ccna tutorial", "tcp/ip course"},
	"Embedded":      {"embedded systems course", "arduino tutorial", "raspberry pi course", "microcontroller tutorial"},
	"Math":          {"linear algebra course", "calculus tutorial", "discrete mathematics course", "statistics course"},
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		// No config file is fine; env vars and defaults carry the rest.
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills env fallbacks and default values in place.
func (c *Config) ApplyDefaults() {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.DailyQuota == 0 {
		c.YouTube.DailyQuota = 10000
	}
	if c.YouTube.SearchCost == 0 {
		c.YouTube.SearchCost = 100
	}
	if c.YouTube.PlaylistItemsCost == 0 {
		c.YouTube.PlaylistItemsCost = 1
	}
	if c.YouTube.VideoBatchCost == 0 {
		c.YouTube.VideoBatchCost = 1
	}
	if c.YouTube.ChannelCost == 0 {
		c.YouTube.ChannelCost = 1
	}

	if c.Collector.MinCourseDurationMin == 0 {
		c.Collector.MinCourseDurationMin = 60
	}
	if c.Collector.MinLessons == 0 {
		c.Collector.MinLessons = 5
	}
	if c.Collector.MaxPlaylistsPerCategory == 0 {
		c.Collector.MaxPlaylistsPerCategory = 10
	}
	if len(c.Collector.Categories) == 0 {
		c.Collector.Categories = DefaultCategories
	}
	if len(c.Collector.Keywords) == 0 {
		c.Collector.Keywords = DefaultKeywords
	}

	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	if c.Store.DBPath == "" {
		c.Store.DBPath = "data/courses.db"
	}

	if c.Embeddings.APIKey == "" {
		c.Embeddings.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "gemini-embedding-001"
	}

	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 6 * * *" // Daily at 6 AM
	}
}

func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY, or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET for OAuth)")
	}
	if len(c.Collector.Categories) != 16 {
		return fmt.Errorf("categories must list exactly 16 names, got %d", len(c.Collector.Categories))
	}
	known := make(map[string]bool, len(c.Collector.Categories))
	for _, cat := range c.Collector.Categories {
		if known[cat] {
			return fmt.Errorf("duplicate category %q", cat)
		}
		known[cat] = true
	}
	if !known["Other"] {
		return fmt.Errorf("categories must include the fallback category \"Other\"")
	}
	for cat := range c.Collector.Keywords {
		if !known[cat] {
			return fmt.Errorf("keywords reference unknown category %q", cat)
		}
	}
	if c.Embeddings.Enabled && c.Embeddings.APIKey == "" {
		return fmt.Errorf("embeddings are enabled but no Gemini API key is set (GEMINI_API_KEY or embeddings.gemini_api_key)")
	}
	if c.Email.Enabled {
		if c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("email reports are enabled but SMTP credentials are missing (EMAIL_USERNAME / EMAIL_PASSWORD)")
		}
		if c.Email.SMTPServer == "" || c.Email.ToEmail == "" {
			return fmt.Errorf("email reports are enabled but smtp_server or to_email is missing")
		}
	}
	return nil
}
