package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lottoAgent/internal/failure"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Cfg struct {
	Credentials Credentials
	Logger      Logger
	Browser     Browser
	Timeouts    Timeouts
	Purchase    Purchase
	Portal      Portal
	Report      Report
	OpenAI      OpenAI
}

type Credentials struct {
	UserID   string `env:"USER_ID"`
	Password string `env:"PASSWD"`
}

type Logger struct {
	Env   string `env:"LOGGER_ENV" envDefault:"prod"`
	Level string `env:"LOG_LEVEL"  envDefault:"info"`
}

type Browser struct {
	Headless     bool          `env:"HEADLESS"                 envDefault:"true"`
	SlowMo       time.Duration `env:"SLOW_MO"`
	UserAgent    string        `env:"BROWSER_USER_AGENT"`
	SessionPath  string        `env:"SESSION_PATH"             envDefault:"./session.json"`
	BrowsersPath string        `env:"PLAYWRIGHT_BROWSERS_PATH"`
}

type Timeouts struct {
	Navigate    time.Duration `env:"NAVIGATE_TIMEOUT"     envDefault:"30s"`
	Action      time.Duration `env:"ACTION_TIMEOUT"       envDefault:"10s"`
	Probe       time.Duration `env:"PROBE_TIMEOUT"        envDefault:"5s"`
	LoginVerify time.Duration `env:"LOGIN_VERIFY_TIMEOUT" envDefault:"15s"`
	Balance     time.Duration `env:"BALANCE_TIMEOUT"      envDefault:"20s"`
	LoginSettle time.Duration `env:"LOGIN_SETTLE"         envDefault:"3s"`
	StepSettle  time.Duration `env:"STEP_SETTLE"          envDefault:"1s"`
	// Пауза перед проверкой лимита: попап появляется не сразу после подтверждения
	ResultSettle time.Duration `env:"RESULT_SETTLE" envDefault:"3s"`
}

type Purchase struct {
	AutoGames        int    `env:"AUTO_GAMES"       envDefault:"0"`
	ManualNumbersRaw string `env:"MANUAL_NUMBERS"`
	Confirm          bool   `env:"PURCHASE_CONFIRM"`
}

type Portal struct {
	SelectorsFile string `env:"SELECTORS_FILE"`
	PensionLayout string `env:"PENSION_LAYOUT" envDefault:"mobile"`
}

type Report struct {
	NATSURL        string `env:"NATS_URL"`
	NATSSubject    string `env:"NATS_SUBJECT"    envDefault:"lotto.runs"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
}

type OpenAI struct {
	KeyAI   string `env:"OPENAI_API_KEY"`
	Model   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string `env:"OPENAI_BASE_URL"`
}

// Load читает .env (без перезаписи уже заданных переменных) и окружение.
// Вызывается один раз до запуска браузера.
func Load() (*Cfg, error) {
	loadDotEnv()

	cfg := &Cfg{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("разбор переменных окружения: %w", err)
	}

	cfg.Credentials.UserID = strings.TrimSpace(cfg.Credentials.UserID)
	cfg.Portal.PensionLayout = strings.ToLower(strings.TrimSpace(cfg.Portal.PensionLayout))

	return cfg, nil
}

// Первый загруженный файл побеждает: godotenv.Load не перезаписывает переменные.
func loadDotEnv() {
	if path := os.Getenv("ENV_FILE"); path != "" {
		_ = godotenv.Load(path)
	}

	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	if exe, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(filepath.Dir(exe)), ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// Validate проверяет обязательные значения. Отсутствие учетных данных
// возвращается как failure.ConfigurationError со списком ключей.
func (c *Cfg) Validate() error {
	var missing []string
	if c.Credentials.UserID == "" {
		missing = append(missing, "USER_ID")
	}
	if c.Credentials.Password == "" {
		missing = append(missing, "PASSWD")
	}
	if len(missing) > 0 {
		return &failure.ConfigurationError{Missing: missing}
	}

	switch c.Portal.PensionLayout {
	case "mobile", "desktop":
	default:
		return fmt.Errorf("PENSION_LAYOUT должен быть mobile или desktop, получено %q", c.Portal.PensionLayout)
	}

	if c.Purchase.AutoGames < 0 || c.Purchase.AutoGames > 5 {
		return fmt.Errorf("AUTO_GAMES должен быть от 0 до 5, получено %d", c.Purchase.AutoGames)
	}

	if _, err := c.Purchase.ManualNumbers(); err != nil {
		return err
	}

	return nil
}

// ManualNumbers разбирает MANUAL_NUMBERS вида [[1,2,3,4,5,6],[7,8,9,10,11,12]].
// Диапазон и уникальность проверяет purchase.
func (p Purchase) ManualNumbers() ([][]int, error) {
	raw := strings.TrimSpace(p.ManualNumbersRaw)
	if raw == "" {
		return nil, nil
	}

	var sets [][]int
	if err := json.Unmarshal([]byte(raw), &sets); err != nil {
		return nil, fmt.Errorf("MANUAL_NUMBERS: ожидается JSON-массив наборов чисел: %w", err)
	}
	return sets, nil
}
