package config

import (
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"
)

// Config holds every runtime-tunable input for the linkage core. Fields are
// read once per task (spec.md §6: "Configuration inputs (read once per
// task)") so a single task observes a coherent decision surface even if the
// process config is reloaded mid-task.
type Config struct {
	AppName    string `env:"APP_NAME" env-default:"meridian"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`

	// PostgreSQL (Result Store: linkage_results, enhanced_associations)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"meridian"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseReconnectRetryCount   int           `env:"DB_RECONNECT_RETRY_COUNT" env-default:"3"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/migrations"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Graph Database (Memgraph, via Bolt) backing the L4 shared-attribute graph
	GraphDBHost     string `env:"GRAPH_DB_HOST" env-default:"localhost"`
	GraphDBPort     int    `env:"GRAPH_DB_PORT" env-default:"7687"`
	GraphDBUser     string `env:"GRAPH_DB_USER" env-default:""`
	GraphDBPassword string `env:"GRAPH_DB_PASSWORD" env-default:""`

	// Kafka: task lifecycle events. KafkaPrimaryTopic, KafkaConsumerGroup and
	// KafkaConsumerEnabled are not read by any package; no CDC consumer is
	// included in this module.
	KafkaBrokers          []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaPrimaryTopic     string   `env:"KAFKA_PRIMARY_TOPIC" env-default:"hazard-inspection.public.units"`
	KafkaConsumerGroup    string   `env:"KAFKA_CONSUMER_GROUP" env-default:"meridian-ingest"`
	KafkaConsumerEnabled  bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"false"`
	KafkaLifecycleTopic   string   `env:"KAFKA_LIFECYCLE_TOPIC" env-default:"meridian-task-events"`
	KafkaBatchSize        int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeoutMs   int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks     int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression      string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Matching (spec.md §6 configuration table)
	BatchSize           int     `env:"MATCH_BATCH_SIZE" env-default:"100"`
	WorkersPerPage      int     `env:"MATCH_WORKERS_PER_PAGE" env-default:"4"`
	Theta1              float64 `env:"MATCH_THETA1" env-default:"0.75"`
	Theta2              float64 `env:"MATCH_THETA2" env-default:"0.70"`
	NameCoreHardGate    float64 `env:"MATCH_NAME_CORE_HARD_GATE" env-default:"0.70"`
	L4NameCoreHardGate  float64 `env:"MATCH_L4_NAME_CORE_HARD_GATE" env-default:"0.60"`
	CandidateCapK       int     `env:"MATCH_CANDIDATE_CAP_K" env-default:"100"`
	TextSearchLimitT    int     `env:"MATCH_TEXT_SEARCH_LIMIT_T" env-default:"50"`
	AddressKeywordLimit int     `env:"MATCH_ADDRESS_KEYWORD_LIMIT" env-default:"30"`
	PerRecordDeadlineMs int     `env:"MATCH_PER_RECORD_DEADLINE_MS" env-default:"2000"`
	TaskDeadlineSeconds int     `env:"MATCH_TASK_DEADLINE_SECONDS" env-default:"0"` // 0 = no global deadline
	GraphRecentWindowN  int     `env:"MATCH_GRAPH_RECENT_WINDOW_N" env-default:"50000"`

	// Enhanced Association Aggregator. AssociationConfidenceFloor is not read:
	// association.Repository applies a fixed 0.70 cutoff.
	AssociationConfidenceFloor float64 `env:"ASSOCIATION_CONFIDENCE_FLOOR" env-default:"0.70"`
}

// Load reads Config from the process environment, falling back to each
// field's env-default tag where unset. A .env file in the working
// directory is loaded first if present; its absence is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
