package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"UniMentor"`
	Port    string `env:"PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`

	AdminEmail     string `env:"ADMIN_EMAIL"`
	AdminPassword  string `env:"ADMIN_PASSWORD"`
	AdminFirstName string `env:"ADMIN_FIRST_NAME" envDefault:"Platform"`
	AdminLastName  string `env:"ADMIN_LAST_NAME" envDefault:"Admin"`

	MeetingBaseURL   string `env:"MEETING_BASE_URL" envDefault:"https://meet.google.com/test-session-"`
	FrontendURL      string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	PublicBackendURL string `env:"PUBLIC_BACKEND_URL" envDefault:"http://localhost:8080"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	CloudinaryURL string `env:"CLOUDINARY_URL"`
	UploadFolder  string `env:"UPLOAD_FOLDER" envDefault:"unimentor_verification"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogOutput string `env:"LOG_OUTPUT" envDefault:"stdout"`

	CleanupSchedule  string `env:"CLEANUP_SCHEDULE" envDefault:"@daily"`
	ReminderSchedule string `env:"REMINDER_SCHEDULE" envDefault:"*/5 * * * *"`
}

// Load reads .env (when present) into the process environment and parses it into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GoogleCallbackURL is the redirect URI registered with Google for the server-side callback.
func (c *Config) GoogleCallbackURL() string {
	return c.PublicBackendURL + "/api/v1/auth/google/callback"
}
