package cfg

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds every runtime parameter of the service. All money values
// are in hundredths of a unit.
type Config struct {
	DatabaseDSN string
	RedisAddr   string
	TokenStore  string // "memory" or "redis"

	APIPort     string
	MetricsPort string

	BotToken  string
	DevChatID int64

	MinActionInterval time.Duration
	TokenTTL          time.Duration
	TokenGrace        time.Duration
	QuotaResetAfter   time.Duration

	MaxAdsPerPeriod   int
	MaxSpinsPerPeriod int

	AdReward        int64
	SpinPrizes      []int64
	CommissionBP    int64
	MinWithdrawal   int64
	SponsorChatID   int64
	SponsorChatLink string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is picked up when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	c := &Config{
		DatabaseDSN: dsn,
		RedisAddr:   envStr("REDIS_ADDR", "127.0.0.1:6379"),
		TokenStore:  envStr("TOKEN_STORE", "memory"),

		APIPort:     envStr("API_PORT", "8080"),
		MetricsPort: envStr("METRICS_PORT", "7011"),

		BotToken: os.Getenv("BOT_TOKEN"),

		MinActionInterval: envDur("MIN_ACTION_INTERVAL", 3000*time.Millisecond),
		TokenTTL:          envDur("TOKEN_TTL", 60*time.Second),
		TokenGrace:        envDur("TOKEN_GRACE", 10*time.Second),
		QuotaResetAfter:   envDur("QUOTA_RESET_AFTER", 6*time.Hour),

		MaxAdsPerPeriod:   envInt("MAX_ADS_PER_PERIOD", 100),
		MaxSpinsPerPeriod: envInt("MAX_SPINS_PER_PERIOD", 50),

		AdReward:        envInt64("AD_REWARD", 300),
		CommissionBP:    envInt64("COMMISSION_BP", 500),
		MinWithdrawal:   envInt64("MIN_WITHDRAWAL", 10000),
		SponsorChatID:   envInt64("SPONSOR_CHAT_ID", 0),
		SponsorChatLink: os.Getenv("SPONSOR_CHAT_LINK"),
	}

	c.DevChatID = envInt64("DEV_CHAT_ID", 0)

	prizes, err := parsePrizes(envStr("SPIN_PRIZES", "0,50,100,200,300,500,1000"))
	if err != nil {
		return nil, errors.Wrap(err, "parse SPIN_PRIZES")
	}
	c.SpinPrizes = prizes

	if c.TokenStore != "memory" && c.TokenStore != "redis" {
		return nil, errors.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}

	return c, nil
}

func parsePrizes(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	prizes := make([]int64, 0, len(parts))
	for _, part := range parts {
		prize, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		if prize < 0 {
			return nil, errors.Errorf("negative prize %d", prize)
		}
		prizes = append(prizes, prize)
	}
	if len(prizes) == 0 {
		return nil, errors.New("empty prize table")
	}
	return prizes, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
