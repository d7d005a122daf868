package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config agrupa la configuración del servicio (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Ledger LedgerConfig
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
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
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

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	SwaggerFile string // swagger.json generado por swag init
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LedgerConfig parámetros del motor de stock.
type LedgerConfig struct {
	ConsumptionOrder      string          // fifo | fefo
	PairedApprovalPolicy  string          // none | approve | complete
	ApprovalCostThreshold decimal.Decimal // costo total a partir del cual un ajuste requiere aprobación; 0 = sin límite
	LockTimeout           time.Duration   // SET LOCAL lock_timeout de cada transacción
	ReconcileWorkers      int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, LEDGER_CONSUMPTION_ORDER, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	threshold, err := decimal.NewFromString(getString(v, "LEDGER_APPROVAL_COST_THRESHOLD", "0"))
	if err != nil {
		return nil, fmt.Errorf("config: LEDGER_APPROVAL_COST_THRESHOLD inválido: %w", err)
	}
	lockTimeout, err := time.ParseDuration(getString(v, "LEDGER_LOCK_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("config: LEDGER_LOCK_TIMEOUT inválido: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "stock-ledger"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "stock_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "stock-ledger"),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 8080),
			SwaggerFile: getString(v, "HTTP_SWAGGER_FILE", "./docs/swagger.json"),
		},
		Ledger: LedgerConfig{
			ConsumptionOrder:      strings.ToLower(getString(v, "LEDGER_CONSUMPTION_ORDER", "fifo")),
			PairedApprovalPolicy:  strings.ToLower(getString(v, "LEDGER_PAIRED_APPROVAL_POLICY", "none")),
			ApprovalCostThreshold: threshold,
			LockTimeout:           lockTimeout,
			ReconcileWorkers:      getInt(v, "LEDGER_RECONCILE_WORKERS", 4),
		},
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c LedgerConfig) validate() error {
	switch c.ConsumptionOrder {
	case "fifo", "fefo":
	default:
		return fmt.Errorf("config: LEDGER_CONSUMPTION_ORDER desconocido: %q", c.ConsumptionOrder)
	}
	switch c.PairedApprovalPolicy {
	case "none", "approve", "complete":
	default:
		return fmt.Errorf("config: LEDGER_PAIRED_APPROVAL_POLICY desconocida: %q", c.PairedApprovalPolicy)
	}
	if c.ReconcileWorkers < 1 {
		return fmt.Errorf("config: LEDGER_RECONCILE_WORKERS debe ser >= 1")
	}
	if c.ApprovalCostThreshold.IsNegative() {
		return fmt.Errorf("config: LEDGER_APPROVAL_COST_THRESHOLD no puede ser negativo")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
