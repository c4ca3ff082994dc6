package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeJWT      = "jwt"

	ProfileStoreFirestore = "firestore"
	ProfileStoreMongo     = "mongo"
	ProfileStoreFile      = "file"
)

type Config struct {
	Environment   string
	ServerAddress string

	AuthMode                string
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	StorageBucket           string
	JWTSecret               string
	JWTExpiration           time.Duration

	ProfileStore string
	MongoURI     string
	MongoDB      string
	DataDir      string

	UploadDir         string
	MaxUploadSizeMB   int64
	ModerationEnabled bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NoticeTTL     time.Duration

	GeocodeEndpoint string
	GeocodeRPS      int

	SendGridAPIKey string
	MailFromEmail  string

	CORSAllowedOrigins []string

	DefaultCoverPhoto string
	Routes            Routes
}

// Routes are the client-side paths the service redirects or links to.
type Routes struct {
	Home     string
	Register string
	Login    string
	Profile  string
	Settings string
}

func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		Environment:   getEnv("APP_ENV", "development"),
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),

		AuthMode:                strings.ToLower(getEnv("AUTH_MODE", AuthModeFirebase)),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		StorageBucket:           os.Getenv("STORAGE_BUCKET"),
		JWTSecret:               getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiration:           getDuration("JWT_EXPIRATION", 24*time.Hour),

		ProfileStore: strings.ToLower(getEnv("PROFILE_STORE", ProfileStoreFirestore)),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getEnv("MONGO_DB", "gatherly"),
		DataDir:      getEnv("DATA_DIR", "./data"),

		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSizeMB:   int64(getInt("MAX_UPLOAD_SIZE_MB", 10)),
		ModerationEnabled: getBool("MODERATION_ENABLED", false),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		NoticeTTL:     getDuration("NOTICE_TTL", 5*time.Second),

		GeocodeEndpoint: getEnv("GEOCODE_ENDPOINT", "https://api.bigdatacloud.net/data/reverse-geocode-client"),
		GeocodeRPS:      getInt("GEOCODE_RPS", 5),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFromEmail:  os.Getenv("MAIL_FROM_EMAIL"),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DefaultCoverPhoto: getEnv("DEFAULT_COVER_PHOTO", "https://picsum.photos/200/300"),
		Routes: Routes{
			Home:     getEnv("HOME_PATH", "/"),
			Register: getEnv("REGISTER_PATH", "/auth/register"),
			Login:    getEnv("LOGIN_PATH", "/auth/login"),
			Profile:  getEnv("PROFILE_PATH", "/profile"),
			Settings: getEnv("SETTINGS_PATH", "/setting"),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
