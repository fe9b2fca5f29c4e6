package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	SMTP struct {
		Host       string
		Port       int
		Username   string
		Password   string
		From       string
		AdminEmail string
	}
	RateLimit struct {
		Requests int // запросов в окно
		Window   int // окно в секундах
	}
}

// NewConfig создает новый экземпляр конфигурации. Значения читаются
// из переменных окружения (SERVER_PORT, DB_HOST и т.д.), при их
// отсутствии используются значения по умолчанию.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Настройки сервера
	v.SetDefault("server.port", 8080)

	// Настройки базы данных
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.dbname", "bank_db")

	// Настройки JWT
	v.SetDefault("jwt.secretkey", "your-secret-key-here")
	v.SetDefault("jwt.expiresin", 24)

	// Настройки SMTP
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "your-email@gmail.com")
	v.SetDefault("smtp.password", "your-app-password")
	v.SetDefault("smtp.from", "your-email@gmail.com")
	v.SetDefault("smtp.adminemail", "admin@example.com")

	// Ограничение частоты запросов
	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", 60)

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("server.port")
	cfg.DB.Host = v.GetString("db.host")
	cfg.DB.Port = v.GetInt("db.port")
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.dbname")
	cfg.JWT.SecretKey = v.GetString("jwt.secretkey")
	cfg.JWT.ExpiresIn = v.GetInt("jwt.expiresin")
	cfg.SMTP.Host = v.GetString("smtp.host")
	cfg.SMTP.Port = v.GetInt("smtp.port")
	cfg.SMTP.Username = v.GetString("smtp.username")
	cfg.SMTP.Password = v.GetString("smtp.password")
	cfg.SMTP.From = v.GetString("smtp.from")
	cfg.SMTP.AdminEmail = v.GetString("smtp.adminemail")
	cfg.RateLimit.Requests = v.GetInt("ratelimit.requests")
	cfg.RateLimit.Window = v.GetInt("ratelimit.window")

	return cfg, nil
}
