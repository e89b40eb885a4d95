package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (Viper: variables de entorno y,
// opcionalmente, archivo .env / config.env).
type Config struct {
	App    AppConfig
	DB     DBConfig
	HTTP   HTTPConfig
	Redis  RedisConfig
	S3     S3Config
	Fiscal FiscalConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool // aplica migraciones pendientes al arrancar
}

// ConnectionString devuelve DATABASE_URL si está definido, si no el DSN construido.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN arma el connection string con URL encoding de la contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig: con Addr vacío el bloqueo por pedido es en proceso y no hay
// deduplicación por Idempotency-Key.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// S3Config almacén de artefactos (DANFE y XML autorizado). Bucket vacío = sin subida.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // MinIO / LocalStack
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicBaseURL   string // si se define, las URLs se arman con esta base en vez de presignar
}

// Enabled indica si hay bucket configurado.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// FiscalConfig emisión de NF-e.
type FiscalConfig struct {
	CompanyID        string // empresa emisora
	Environment      int    // 1 = produção, 2 = homologação
	AuthorizationURL string // endpoint NFeAutorizacao4 de la UF
	CertPath         string // .pfx/.p12 o .pem (vacío = no firmar)
	CertKeyPath      string // llave .pem si CertPath es solo el certificado
	CertPassword     string
	DefaultModel     string
	DefaultSeries    int
	SubmitTimeout    time.Duration
	Simulate         bool // usa el gateway simulado en vez de la SEFAZ
	PublicBaseURL    string
}

// Load lee la configuración. Las variables de entorno tienen prioridad:
// APP_ENV, DB_HOST, REDIS_ADDR, S3_BUCKET, FISCAL_ENVIRONMENT, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // opcional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // opcional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			Name:     v.GetString("APP_NAME"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		HTTP: HTTPConfig{
			Host:         v.GetString("HTTP_HOST"),
			Port:         v.GetInt("HTTP_PORT"),
			ReadTimeout:  v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("HTTP_WRITE_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LockTTL:  v.GetDuration("REDIS_LOCK_TTL"),
		},
		S3: S3Config{
			Bucket:          v.GetString("S3_BUCKET"),
			Region:          v.GetString("S3_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			UsePathStyle:    v.GetBool("S3_USE_PATH_STYLE"),
			PublicBaseURL:   v.GetString("S3_PUBLIC_BASE_URL"),
		},
		Fiscal: FiscalConfig{
			CompanyID:        v.GetString("FISCAL_COMPANY_ID"),
			Environment:      v.GetInt("FISCAL_ENVIRONMENT"),
			AuthorizationURL: v.GetString("FISCAL_AUTHORIZATION_URL"),
			CertPath:         v.GetString("FISCAL_CERT_PATH"),
			CertKeyPath:      v.GetString("FISCAL_CERT_KEY_PATH"),
			CertPassword:     v.GetString("FISCAL_CERT_PASSWORD"),
			DefaultModel:     v.GetString("FISCAL_DEFAULT_MODEL"),
			DefaultSeries:    v.GetInt("FISCAL_DEFAULT_SERIES"),
			SubmitTimeout:    v.GetDuration("FISCAL_SUBMIT_TIMEOUT"),
			Simulate:         v.GetBool("FISCAL_SIMULATE"),
			PublicBaseURL:    v.GetString("PUBLIC_BASE_URL"),
		},
	}

	if cfg.Fiscal.Environment != 1 && cfg.Fiscal.Environment != 2 {
		return nil, fmt.Errorf("config: FISCAL_ENVIRONMENT debe ser 1 (produção) o 2 (homologação)")
	}
	if cfg.Fiscal.CompanyID == "" {
		return nil, fmt.Errorf("config: FISCAL_COMPANY_ID es obligatorio")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "vendas-api")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "vendas")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("HTTP_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "90s")

	v.SetDefault("REDIS_LOCK_TTL", "60s")

	v.SetDefault("S3_REGION", "sa-east-1")

	v.SetDefault("FISCAL_ENVIRONMENT", 2)
	v.SetDefault("FISCAL_DEFAULT_MODEL", "55")
	v.SetDefault("FISCAL_DEFAULT_SERIES", 1)
	v.SetDefault("FISCAL_SUBMIT_TIMEOUT", "30s")
	v.SetDefault("FISCAL_SIMULATE", true)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
}
