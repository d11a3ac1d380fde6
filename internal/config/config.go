package config

import (
	"fmt"
	"os"
	"strconv"
)

// Source selection for the payment/reminder/tenant query boundary.
const (
	SourcePostgres = "postgres"
	SourceHTTP     = "http"
)

// Delivery channel selection for outbound notifications.
const (
	DeliveryQueue = "queue"
	DeliveryEmail = "email"
	DeliveryLog   = "log"
)

type Config struct {
	Port     int
	LogLevel string
	Env      string

	// Pipeline
	Source         string // postgres | http
	Delivery       string // queue | email | log
	HorizonDays    int
	ResolveWorkers int
	CronSpec       string // daily trigger, cron format
	RunOnStart     bool   // run the pipeline once at boot
	SentTTLHours   int    // sent-log retention

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Backend HTTP source
	BackendBaseURL string
	BackendKey     string

	// Redis (sent-log)
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// AWS Services
	AWSRegion        string
	SQSQueueURL      string
	SQSConsume       bool // run the in-process queue consumer
	SESFromEmail     string
	SNSAlertTopicARN string // ops alerts on run-fatal errors
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:     8080,
		LogLevel: "info",
		Env:      "development",

		Source:         SourcePostgres,
		Delivery:       DeliveryQueue,
		HorizonDays:    10,
		ResolveWorkers: 4,
		CronSpec:       "0 8 * * *",
		SentTTLHours:   48,

		// Local postgres defaults
		DBHost:     "localhost",
		DBPort:     5432,
		DBUser:     "lanten",
		DBPassword: "",
		DBName:     "lanten",
		DBSSLMode:  "disable",

		// Redis defaults
		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		AWSRegion:    "eu-west-2",
		SESFromEmail: "updates@lanten.site",
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = p
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if env := os.Getenv("ENV"); env != "" {
		cfg.Env = env
	}

	if src := os.Getenv("REMINDER_SOURCE"); src != "" {
		if src != SourcePostgres && src != SourceHTTP {
			return nil, fmt.Errorf("invalid REMINDER_SOURCE: %q", src)
		}
		cfg.Source = src
	}

	if d := os.Getenv("REMINDER_DELIVERY"); d != "" {
		if d != DeliveryQueue && d != DeliveryEmail && d != DeliveryLog {
			return nil, fmt.Errorf("invalid REMINDER_DELIVERY: %q", d)
		}
		cfg.Delivery = d
	}

	if days := os.Getenv("REMINDER_HORIZON_DAYS"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid REMINDER_HORIZON_DAYS: %q", days)
		}
		cfg.HorizonDays = d
	}

	if workers := os.Getenv("REMINDER_RESOLVE_WORKERS"); workers != "" {
		w, err := strconv.Atoi(workers)
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("invalid REMINDER_RESOLVE_WORKERS: %q", workers)
		}
		cfg.ResolveWorkers = w
	}

	if spec := os.Getenv("REMINDER_CRON"); spec != "" {
		cfg.CronSpec = spec
	}

	if run := os.Getenv("REMINDER_RUN_ON_START"); run != "" {
		b, err := strconv.ParseBool(run)
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_RUN_ON_START: %w", err)
		}
		cfg.RunOnStart = b
	}

	if ttl := os.Getenv("SENT_TTL_HOURS"); ttl != "" {
		h, err := strconv.Atoi(ttl)
		if err != nil || h <= 0 {
			return nil, fmt.Errorf("invalid SENT_TTL_HOURS: %q", ttl)
		}
		cfg.SentTTLHours = h
	}

	// Database config
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DBHost = host
	}

	if port := os.Getenv("DB_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT: %w", err)
		}
		cfg.DBPort = p
	}

	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DBUser = user
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DBPassword = password
	}

	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DBName = dbname
	}

	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		cfg.DBSSLMode = sslmode
	}

	// Backend HTTP source
	if url := os.Getenv("BACKEND_BASE_URL"); url != "" {
		cfg.BackendBaseURL = url
	}

	if key := os.Getenv("BACKEND_KEY"); key != "" {
		cfg.BackendKey = key
	}

	if cfg.Source == SourceHTTP && (cfg.BackendBaseURL == "" || cfg.BackendKey == "") {
		return nil, fmt.Errorf("http source requires BACKEND_BASE_URL and BACKEND_KEY")
	}

	// Redis config
	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.RedisHost = host
	}

	if port := os.Getenv("REDIS_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
		}
		cfg.RedisPort = p
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.RedisPassword = password
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		d, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = d
	}

	// AWS config
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.AWSRegion = region
	}

	if url := os.Getenv("SQS_QUEUE_URL"); url != "" {
		cfg.SQSQueueURL = url
	}

	if consume := os.Getenv("SQS_CONSUME"); consume != "" {
		b, err := strconv.ParseBool(consume)
		if err != nil {
			return nil, fmt.Errorf("invalid SQS_CONSUME: %w", err)
		}
		cfg.SQSConsume = b
	}

	if from := os.Getenv("SES_FROM_EMAIL"); from != "" {
		cfg.SESFromEmail = from
	}

	if arn := os.Getenv("SNS_ALERT_TOPIC_ARN"); arn != "" {
		cfg.SNSAlertTopicARN = arn
	}

	return cfg, nil
}
