package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppEnv         = "local"
	defaultMainAPIURL     = "http://localhost:3000"
	defaultProductAPIURL  = "http://localhost:3002/api"
	defaultCategoryAPIURL = "http://localhost:3004/api"
	defaultRedisAddr      = "localhost:6379"
	defaultHTTPTimeout    = "30s"
	defaultSearchDebounce = "500ms"
	defaultCacheDriver    = "memory"
	defaultCacheTTL       = "30s"
	defaultTokenStore     = "file"
	defaultDevtoolsAddr   = ":8090"
)

var (
	loadOnce sync.Once
	loadErr  error
	warnOnce sync.Once

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads config/app.json and .env once. Process environment variables
// always win over file values.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

// ensureLoaded loads lazily for the typed getters. A load error is reported
// once; the getters keep serving defaults and process env.
func ensureLoaded() {
	if err := Load(); err != nil {
		warnOnce.Do(func() {
			slog.Warn("config: load failed, using defaults and environment", "error", err)
		})
	}
}

// LoadFrom replaces the current values with the ones read from the given
// files. Missing files are ignored.
func LoadFrom(configPath, envPath string) error {
	loadOnce.Do(func() {})
	loadErr = loadFromFiles(configPath, envPath)
	return loadErr
}

// Set overrides a single key at runtime (CLI flags, tests).
func Set(key, value string) {
	ensureLoaded()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":          defaultAppEnv,
		"API_MAIN_URL":     defaultMainAPIURL,
		"API_PRODUCT_URL":  defaultProductAPIURL,
		"API_CATEGORY_URL": defaultCategoryAPIURL,
		"HTTP_TIMEOUT":     defaultHTTPTimeout,
		"SEARCH_DEBOUNCE":  defaultSearchDebounce,
		"CACHE_DRIVER":     defaultCacheDriver,
		"CACHE_TTL":        defaultCacheTTL,
		"TOKEN_STORE":      defaultTokenStore,
		"REDIS_ADDR":       defaultRedisAddr,
		"REDIS_PASSWORD":   "",
		"DEVTOOLS_ADDR":    defaultDevtoolsAddr,
	}
}

func AppEnv() string {
	ensureLoaded()
	return get("APP_ENV", defaultAppEnv)
}

// ── Backends ─────────────────────────────────────────────────────────────────

// MainAPIURL is the auth/repair/review/staff/about/order backend.
func MainAPIURL() string {
	ensureLoaded()
	return strings.TrimRight(get("API_MAIN_URL", defaultMainAPIURL), "/")
}

func ProductAPIURL() string {
	ensureLoaded()
	return strings.TrimRight(get("API_PRODUCT_URL", defaultProductAPIURL), "/")
}

func CategoryAPIURL() string {
	ensureLoaded()
	return strings.TrimRight(get("API_CATEGORY_URL", defaultCategoryAPIURL), "/")
}

func HTTPTimeout() time.Duration {
	ensureLoaded()
	return duration("HTTP_TIMEOUT", defaultHTTPTimeout)
}

// SearchDebounce is the delay applied to list requests while search text is set.
func SearchDebounce() time.Duration {
	ensureLoaded()
	return duration("SEARCH_DEBOUNCE", defaultSearchDebounce)
}

// ── Cache / session ──────────────────────────────────────────────────────────

func CacheDriver() string {
	ensureLoaded()
	driver := strings.ToLower(get("CACHE_DRIVER", defaultCacheDriver))
	switch driver {
	case "memory", "redis", "none":
		return driver
	default:
		return defaultCacheDriver
	}
}

func CacheTTL() time.Duration {
	ensureLoaded()
	return duration("CACHE_TTL", defaultCacheTTL)
}

func TokenStore() string {
	ensureLoaded()
	store := strings.ToLower(get("TOKEN_STORE", defaultTokenStore))
	switch store {
	case "memory", "file", "redis":
		return store
	default:
		return defaultTokenStore
	}
}

// TokenFile is where the file token store keeps the session.
func TokenFile() string {
	ensureLoaded()
	if p := get("TOKEN_FILE", ""); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shopdesk-session.json"
	}
	return home + "/.shopdesk/session.json"
}

// TokenKey seals the token file when set.
func TokenKey() string { ensureLoaded(); return get("TOKEN_KEY", "") }

func RedisAddr() string {
	ensureLoaded()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	ensureLoaded()
	return get("REDIS_PASSWORD", "")
}

// ── Side channels ────────────────────────────────────────────────────────────

func SlackWebhook() string { ensureLoaded(); return get("SLACK_WEBHOOK_URL", "") }
func LogMongoURI() string  { ensureLoaded(); return get("LOG_MONGO_URI", "") }
func LogMongoDB() string   { ensureLoaded(); return get("LOG_MONGO_DB", "shopdesk") }
func DevtoolsAddr() string { ensureLoaded(); return get("DEVTOOLS_ADDR", defaultDevtoolsAddr) }

// DevtoolsToken, when set, is required as a bearer token by the devtools
// server.
func DevtoolsToken() string { ensureLoaded(); return get("DEVTOOLS_TOKEN", "") }

// DevtoolsOrigins lists the origins allowed to call the devtools server.
func DevtoolsOrigins() []string {
	ensureLoaded()
	var out []string
	for _, o := range strings.Split(get("DEVTOOLS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DevtoolsRate is the number of actions a devtools client may dispatch per
// minute.
func DevtoolsRate() int {
	ensureLoaded()
	n, err := strconv.Atoi(get("DEVTOOLS_RATE", "120"))
	if err != nil || n <= 0 {
		return 120
	}
	return n
}

// StatsRefresh is the devtools dashboard polling interval. Zero disables it.
func StatsRefresh() time.Duration {
	ensureLoaded()
	return duration("STATS_REFRESH", "0s")
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string    { ensureLoaded(); return get("STORAGE_DISK", "local") }
func StorageLocalRoot() string  { ensureLoaded(); return get("STORAGE_LOCAL_ROOT", ".") }
func StorageS3Bucket() string   { ensureLoaded(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { ensureLoaded(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { ensureLoaded(); return get("S3_KEY", "") }
func StorageS3Secret() string   { ensureLoaded(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { ensureLoaded(); return get("S3_ENDPOINT", "") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	for key := range loaded {
		if v, ok := os.LookupEnv(key); ok {
			loaded[key] = v
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(v)
		}
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}
	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func duration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(get(key, fallback))
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	ensureLoaded()
	return get(key, fallback)
}
