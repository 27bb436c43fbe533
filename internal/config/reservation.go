package config

import "time"

// ReservationConfig tunes the seat allocation engine.
//
//   HOLD_TTL_SECONDS        – lifetime of an unconfirmed hold (default 5)
//   REAPER_INTERVAL_SECONDS – how often expired holds are swept (default 1)
//   CLAIM_MAX_ATTEMPTS      – optimistic claim retries before giving up (default 3)
//   COLLABORATOR_TIMEOUT    – deadline for schedule/payment/store calls (default 2s)
//   TOMBSTONE_RETENTION     – how long removed hold ids are remembered (default 10m)
//   VENUE_LAYOUT_FILE       – optional YAML layout; the embedded theatre is used otherwise
type ReservationConfig struct {
	HoldTTL             time.Duration
	ReaperInterval      time.Duration
	MaxClaimAttempts    int
	CollaboratorTimeout time.Duration
	TombstoneRetention  time.Duration
	LayoutFile          string
}

func LoadReservationConfig() ReservationConfig {
	return ReservationConfig{
		HoldTTL:             time.Duration(envPositiveInt("HOLD_TTL_SECONDS", 5)) * time.Second,
		ReaperInterval:      time.Duration(envPositiveInt("REAPER_INTERVAL_SECONDS", 1)) * time.Second,
		MaxClaimAttempts:    envPositiveInt("CLAIM_MAX_ATTEMPTS", 3),
		CollaboratorTimeout: envPositiveDur("COLLABORATOR_TIMEOUT", 2*time.Second),
		TombstoneRetention:  envPositiveDur("TOMBSTONE_RETENTION", 10*time.Minute),
		LayoutFile:          envStr("VENUE_LAYOUT_FILE", ""),
	}
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string // LOG_LEVEL: debug, info, warn, error (default info)
	Format string // LOG_FORMAT: text or json (default text)
}

func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:  envStr("LOG_LEVEL", "info"),
		Format: envStr("LOG_FORMAT", "text"),
	}
}

// BrokerConfig configures the RabbitMQ booking notifier.  An empty URL
// disables publishing and the booking feed consumer.
type BrokerConfig struct {
	URL          string
	Queue        string
	NotifyBuffer int
	FeedFile     string
}

func LoadBrokerConfig() BrokerConfig {
	url := envStr("RABBITMQ_URL", "")
	if url == "" {
		url = envStr("AMQP_URL", "")
	}
	return BrokerConfig{
		URL:          url,
		Queue:        envStr("BOOKING_QUEUE", "booking.confirmed"),
		NotifyBuffer: envPositiveInt("NOTIFY_BUFFER", 256),
		FeedFile:     envStr("BOOKING_FEED_FILE", "logs/booking.log"),
	}
}
