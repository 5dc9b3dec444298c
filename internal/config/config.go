package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"NewsCurator/internal/domain"
)

const (
	configPathEnv = "NUS_CONFIG"

	logLevelEnv  = "LOG_LEVEL"
	logFormatEnv = "LOG_FORMAT"

	llmProviderEnv     = "LLM_PROVIDER"
	llmEndpointEnv     = "LLM_ENDPOINT"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	claudeModelEnv     = "CLAUDE_MODEL"
	maxTokensEnv       = "MAX_TOKENS"
	temperatureEnv     = "TEMPERATURE"

	fetchTimeoutEnv       = "FETCH_TIMEOUT"
	maxConcurrentFeedsEnv = "MAX_CONCURRENT_FEEDS"
	maxConcurrentAPIEnv   = "MAX_CONCURRENT_API_CALLS"
	retryAttemptsEnv      = "RETRY_ATTEMPTS"
	retryDelayEnv         = "RETRY_DELAY"

	feedsConfigEnv     = "FEEDS_CONFIG"
	promptTemplateEnv  = "PROMPT_TEMPLATE"
	outputDirEnv       = "OUTPUT_DIR"
	outputFilenameEnv  = "OUTPUT_FILENAME"
	maxPerCategoryEnv  = "MAX_ARTICLES_PER_CATEGORY"
	filterClickbaitEnv = "FILTER_CLICKBAIT"
	deduplicateEnv     = "DEDUPLICATE_ARTICLES"

	historyDBEnv       = "HISTORY_DB"
	metricsTextfileEnv = "METRICS_TEXTFILE"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
)

// Provider names accepted in llm.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel    = "claude-3-haiku-20240307"
	defaultOpenAIEndpoint    = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel       = "gpt-4o-mini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging        LoggingConfig        `yaml:"logging"`
	LLM            LLMConfig            `yaml:"llm"`
	Fetch          FetchConfig          `yaml:"fetch"`
	Classification ClassificationConfig `yaml:"classification"`
	Paths          PathsConfig          `yaml:"paths"`
	Output         OutputConfig         `yaml:"output"`
	Features       FeaturesConfig       `yaml:"features"`
	Storage        StorageConfig        `yaml:"storage"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Notifications  NotificationConfig   `yaml:"notifications"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LLMConfig defines how to contact the classification model.
type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"apiKey"`
	MaxTokens         int           `yaml:"maxTokens"`
	Temperature       float64       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	SystemPrompt      string        `yaml:"systemPrompt"`
}

// FetchConfig bounds feed retrieval.
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"maxConcurrent"`
	RetryAttempts int           `yaml:"retryAttempts"`
	RetryDelay    time.Duration `yaml:"retryDelay"`
	UserAgent     string        `yaml:"userAgent"`
}

// ClassificationConfig bounds calls to the model.
type ClassificationConfig struct {
	MaxConcurrent int `yaml:"maxConcurrent"`
}

// PathsConfig locates the per-run inputs and the output document.
type PathsConfig struct {
	FeedsConfig    string `yaml:"feedsConfig"`
	PromptTemplate string `yaml:"promptTemplate"`
	OutputDir      string `yaml:"outputDir"`
	OutputFilename string `yaml:"outputFilename"`
	TemplateDir    string `yaml:"templateDir"`
}

// OutputConfig tunes the rendered digest.
type OutputConfig struct {
	MaxArticlesPerCategory int `yaml:"maxArticlesPerCategory"`
}

// FeaturesConfig holds the pipeline feature flags.
type FeaturesConfig struct {
	FilterClickbait     bool `yaml:"filterClickbait"`
	DeduplicateArticles bool `yaml:"deduplicateArticles"`
}

// StorageConfig points at the optional run ledger.
type StorageConfig struct {
	HistoryPath string `yaml:"historyPath"`
}

// MetricsConfig points at the optional Prometheus textfile.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SchedulerConfig defines how often `watch` repeats a run.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// OutputPath joins the output directory and filename.
func (c Config) OutputPath() string {
	return filepath.Join(c.Paths.OutputDir, c.Paths.OutputFilename)
}

// Load reads the optional .env file and YAML configuration, then applies environment
// overrides. An empty path falls back to NUS_CONFIG; an empty envFile skips .env loading.
func Load(path, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: load %s: %w", domain.ErrConfig, envFile, err)
		}
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %w", domain.ErrConfig, path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %w", domain.ErrConfig, path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	cfg.bindProviderDefaults()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	setSeconds := func(key string, dst *time.Duration) {
		var secs float64
		if os.Getenv(key) == "" {
			return
		}
		before := len(errs)
		setFloat(key, &secs)
		if len(errs) == before {
			*dst = time.Duration(secs * float64(time.Second))
		}
	}

	setString(logLevelEnv, &c.Logging.Level)
	setString(logFormatEnv, &c.Logging.Format)

	setString(llmProviderEnv, &c.LLM.Provider)
	setString(llmEndpointEnv, &c.LLM.Endpoint)
	setString(claudeModelEnv, &c.LLM.Model)
	setInt(maxTokensEnv, &c.LLM.MaxTokens)
	setFloat(temperatureEnv, &c.LLM.Temperature)
	switch strings.ToLower(c.LLM.Provider) {
	case ProviderOpenAI:
		setString(openAIAPIKeyEnv, &c.LLM.APIKey)
	default:
		setString(anthropicAPIKeyEnv, &c.LLM.APIKey)
	}

	setSeconds(fetchTimeoutEnv, &c.Fetch.Timeout)
	setInt(maxConcurrentFeedsEnv, &c.Fetch.MaxConcurrent)
	setInt(retryAttemptsEnv, &c.Fetch.RetryAttempts)
	setSeconds(retryDelayEnv, &c.Fetch.RetryDelay)
	setInt(maxConcurrentAPIEnv, &c.Classification.MaxConcurrent)

	setString(feedsConfigEnv, &c.Paths.FeedsConfig)
	setString(promptTemplateEnv, &c.Paths.PromptTemplate)
	setString(outputDirEnv, &c.Paths.OutputDir)
	setString(outputFilenameEnv, &c.Paths.OutputFilename)
	setInt(maxPerCategoryEnv, &c.Output.MaxArticlesPerCategory)
	setBool(filterClickbaitEnv, &c.Features.FilterClickbait)
	setBool(deduplicateEnv, &c.Features.DeduplicateArticles)

	setString(historyDBEnv, &c.Storage.HistoryPath)
	setString(metricsTextfileEnv, &c.Metrics.Textfile)
	setString(telegramTokenEnv, &c.Notifications.Telegram.BotToken)
	setString(telegramChatIDEnv, &c.Notifications.Telegram.ChatID)

	return errors.Join(errs...)
}

// bindProviderDefaults fills endpoint and model for the selected provider.
func (c *Config) bindProviderDefaults() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderAnthropic
	}

	switch c.LLM.Provider {
	case ProviderAnthropic:
		if c.LLM.Endpoint == "" {
			c.LLM.Endpoint = defaultAnthropicEndpoint
		}
		if c.LLM.Model == "" {
			c.LLM.Model = defaultAnthropicModel
		}
	case ProviderOpenAI:
		if c.LLM.Endpoint == "" {
			c.LLM.Endpoint = defaultOpenAIEndpoint
		}
		if c.LLM.Model == "" {
			c.LLM.Model = defaultOpenAIModel
		}
	}
}

// Validate reports every setting that would make a run fail, before any network activity.
func (c Config) Validate() error {
	var problems []error

	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		problems = append(problems, fmt.Errorf("llm.provider %q is not one of %s, %s", c.LLM.Provider, ProviderAnthropic, ProviderOpenAI))
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		problems = append(problems, errors.New("API key is required (ANTHROPIC_API_KEY or OPENAI_API_KEY)"))
	}
	if c.LLM.MaxTokens < 1 {
		problems = append(problems, errors.New("llm.maxTokens must be positive"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		problems = append(problems, fmt.Errorf("llm.temperature %v outside [0,1]", c.LLM.Temperature))
	}
	if c.LLM.RequestsPerSecond < 0 {
		problems = append(problems, errors.New("llm.requestsPerSecond must not be negative"))
	}
	if c.Fetch.MaxConcurrent < 1 {
		problems = append(problems, errors.New("fetch.maxConcurrent must be positive"))
	}
	if c.Classification.MaxConcurrent < 1 {
		problems = append(problems, errors.New("classification.maxConcurrent must be positive"))
	}
	if c.Fetch.RetryAttempts < 1 {
		problems = append(problems, errors.New("fetch.retryAttempts must be at least 1"))
	}
	if c.Fetch.RetryDelay < 0 {
		problems = append(problems, errors.New("fetch.retryDelay must not be negative"))
	}
	if c.Fetch.Timeout < 0 {
		problems = append(problems, errors.New("fetch.timeout must not be negative"))
	}
	if strings.TrimSpace(c.Paths.OutputFilename) == "" {
		problems = append(problems, errors.New("paths.outputFilename must not be empty"))
	}
	if c.Output.MaxArticlesPerCategory < 1 {
		problems = append(problems, errors.New("output.maxArticlesPerCategory must be positive"))
	}
	if c.Scheduler.Interval <= 0 {
		problems = append(problems, errors.New("scheduler.interval must be positive"))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrConfig, errors.Join(problems...))
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			Provider:    ProviderAnthropic,
			MaxTokens:   1024,
			Temperature: 0.3,
			Timeout:     60 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			MaxConcurrent: 20,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			UserAgent:     "NewsCurator/1.0",
		},
		Classification: ClassificationConfig{MaxConcurrent: 5},
		Paths: PathsConfig{
			FeedsConfig:    "config/feeds.json",
			PromptTemplate: "prompts/categorization.md",
			OutputDir:      "docs",
			OutputFilename: "index.html",
		},
		Output:    OutputConfig{MaxArticlesPerCategory: 50},
		Features:  FeaturesConfig{FilterClickbait: true, DeduplicateArticles: true},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour},
	}
}
