package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vnkhanh/e-podcast-content/models"
)

// Config được đọc một lần lúc khởi động rồi truyền xuống các service.
type Config struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`

	DB struct {
		Driver   string `yaml:"driver"` // postgres | sqlite
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
		DSN      string `yaml:"dsn"` // đường dẫn file sqlite
	} `yaml:"db"`

	Gemini struct {
		APIKey            string `yaml:"api_key"`
		Model             string `yaml:"model"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"gemini"`

	Generation struct {
		MaxAttempts int           `yaml:"max_attempts"`
		Backoff     time.Duration `yaml:"backoff"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"generation"`

	TTS struct {
		CredentialsFile string  `yaml:"credentials_file"`
		Voice           string  `yaml:"voice"`
		Language        string  `yaml:"language"`
		SpeakingRate    float64 `yaml:"speaking_rate"`
		VITSURL         string  `yaml:"vits_url"`
	} `yaml:"tts"`

	Audio struct {
		Storage         string        `yaml:"storage"` // local | supabase
		Dir             string        `yaml:"dir"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
		OrphanGrace     time.Duration `yaml:"orphan_grace"`
	} `yaml:"audio"`

	Supabase struct {
		URL    string `yaml:"url"`
		Key    string `yaml:"key"`
		Bucket string `yaml:"bucket"`
	} `yaml:"supabase"`

	Auth struct {
		AccessTokenSecret string `yaml:"access_token_secret"`
	} `yaml:"auth"`

	Log struct {
		Mode       string `yaml:"mode"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

func defaults() *Config {
	cfg := &Config{Port: "8080", CORSOrigins: []string{"http://localhost:5173"}}
	cfg.DB.Driver = "postgres"
	cfg.DB.SSLMode = "disable"
	cfg.Gemini.Model = "gemini-2.0-flash"
	cfg.Gemini.RequestsPerMinute = 60
	cfg.Generation.MaxAttempts = 5
	cfg.Generation.Backoff = 2 * time.Second
	cfg.Generation.Timeout = 4 * time.Minute
	cfg.TTS.Voice = "en-US-Neural2-F"
	cfg.TTS.Language = "en-US"
	cfg.TTS.SpeakingRate = 1.0
	cfg.Audio.Storage = "local"
	cfg.Audio.Dir = "public/uploads/audio"
	cfg.Audio.CleanupInterval = 6 * time.Hour
	cfg.Audio.OrphanGrace = 24 * time.Hour
	cfg.Supabase.Bucket = "uploads"
	cfg.Log.Mode = "dev"
	return cfg
}

// Load: giá trị mặc định -> file YAML (CONFIG_FILE, nếu có) -> biến môi trường.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("đọc file cấu hình %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse file cấu hình %s: %w", path, err)
		}
	}

	setString(&cfg.Port, "PORT")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	setString(&cfg.DB.Driver, "DB_DRIVER")
	setString(&cfg.DB.Host, "DB_HOST")
	setString(&cfg.DB.Port, "DB_PORT")
	setString(&cfg.DB.User, "DB_USER")
	setString(&cfg.DB.Password, "DB_PASSWORD")
	setString(&cfg.DB.Name, "DB_NAME")
	setString(&cfg.DB.SSLMode, "DB_SSLMODE")
	setString(&cfg.DB.DSN, "DB_DSN")

	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	if err := setInt(&cfg.Gemini.RequestsPerMinute, "GEMINI_REQUESTS_PER_MINUTE"); err != nil {
		return nil, err
	}

	if err := setInt(&cfg.Generation.MaxAttempts, "GENERATION_MAX_ATTEMPTS"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.Generation.Backoff, "GENERATION_BACKOFF"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.Generation.Timeout, "GENERATION_TIMEOUT"); err != nil {
		return nil, err
	}

	setString(&cfg.TTS.CredentialsFile, "GOOGLE_CREDENTIALS_JSON")
	setString(&cfg.TTS.Voice, "TTS_VOICE")
	setString(&cfg.TTS.Language, "TTS_LANGUAGE")
	setString(&cfg.TTS.VITSURL, "VITS_TTS_URL")

	setString(&cfg.Audio.Storage, "AUDIO_STORAGE")
	setString(&cfg.Audio.Dir, "AUDIO_DIR")
	if err := setDuration(&cfg.Audio.CleanupInterval, "AUDIO_CLEANUP_INTERVAL"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.Audio.OrphanGrace, "AUDIO_ORPHAN_GRACE"); err != nil {
		return nil, err
	}

	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.Key, "SUPABASE_KEY")
	setString(&cfg.Supabase.Bucket, "SUPABASE_BUCKET")

	setString(&cfg.Auth.AccessTokenSecret, "ACCESS_TOKEN_SECRET")

	setString(&cfg.Log.Mode, "LOG_MODE")
	setString(&cfg.Log.File, "LOG_FILE")
	if err := setInt(&cfg.Log.MaxSizeMB, "LOG_MAX_SIZE_MB"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.Log.MaxBackups, "LOG_MAX_BACKUPS"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.Log.MaxAgeDays, "LOG_MAX_AGE_DAYS"); err != nil {
		return nil, err
	}

	if cfg.Generation.MaxAttempts < 1 {
		return nil, fmt.Errorf("GENERATION_MAX_ATTEMPTS phải >= 1, nhận %d", cfg.Generation.MaxAttempts)
	}
	if cfg.Audio.Storage == "supabase" && (cfg.Supabase.URL == "" || cfg.Supabase.Key == "") {
		return nil, fmt.Errorf("AUDIO_STORAGE=supabase nhưng SUPABASE_URL hoặc SUPABASE_KEY chưa cấu hình")
	}
	return cfg, nil
}

// InitDB mở kết nối theo driver rồi AutoMigrate.
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true, // để nhận gorm.ErrDuplicatedKey khi đụng unique index
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DB.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DB.DSN), gormCfg)
	default:
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=Asia/Ho_Chi_Minh",
			cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port, cfg.DB.SSLMode,
		)
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("không thể kết nối database: %w", err)
	}

	// Lấy *sql.DB để config connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("không thể lấy sql.DB từ gorm: %w", err)
	}
	if cfg.DB.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.File{},
		&models.Chunk{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.FlashcardSet{},
		&models.Flashcard{},
		&models.Transcript{},
		&models.Podcast{},
		&models.PodcastSection{},
	)
	if err != nil {
		return fmt.Errorf("autoMigrate lỗi: %w", err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s không phải số nguyên: %q", key, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s không phải duration hợp lệ: %q", key, v)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
