package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"vehicle-counter-go/internal/models"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string
	LogFile     string // optional count log file, empty disables

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Video source
	VideoSource   string // file path, stream URI or webcam device index
	VideoFPS      int    // requested capture FPS, 0 keeps the source's native rate
	OutputWidth   int
	OutputHeight  int
	FrameSkip     int  // process every Nth frame
	ShowWindow    bool // live gocv window; disable for headless runs
	OutputQuality int  // JPEG quality for the HTTP preview

	// Detection
	ModelPath           string // Haar cascade XML
	ConfidenceThreshold float32
	CascadeScaleFactor  float64
	CascadeMinNeighbors int
	CascadeMinSize      int // square min object size in pixels

	// Tracking
	MaxAssocDistance float64 // gating distance in pixels
	MaxMissedFrames  int     // ACTIVE -> LOST after this many consecutive misses
	MaxLostFrames    int     // LOST -> FINALIZED after this many further misses
	TrackHistory     int     // centroids retained per track

	// Counting
	CountLines []models.CountLine
	CountZones []models.CountZone

	// NATS (count event publishing)
	NatsEnabled        bool
	NatsURL            string
	NatsSubject        string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsDrainTimeout   time.Duration

	// Recording of the annotated output
	RecordEnabled bool
	RecordPath    string
	RecordFPS     float64

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	lines, err := ParseCountLines(getEnv("COUNT_LINES", "main:0.5,0.0,0.5,1.0"))
	if err != nil {
		return nil, err
	}
	zones, err := ParseCountZones(getEnv("COUNT_ZONES", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "counter-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", "logs/vehicle_count.log"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Video source
		VideoSource:   getEnv("VIDEO_SOURCE", "traffic.mp4"),
		VideoFPS:      getEnvInt("VIDEO_FPS", 0),
		OutputWidth:   getEnvInt("OUTPUT_WIDTH", 1280),
		OutputHeight:  getEnvInt("OUTPUT_HEIGHT", 720),
		FrameSkip:     getEnvInt("FRAME_SKIP", 1),
		ShowWindow:    getEnvBool("SHOW_WINDOW", true),
		OutputQuality: getEnvInt("OUTPUT_QUALITY", 85),

		// Detection
		ModelPath:           getEnv("MODEL_PATH", "models/cars.xml"),
		ConfidenceThreshold: getEnvFloat32("CONFIDENCE_THRESHOLD", 0.0),
		CascadeScaleFactor:  getEnvFloat("CASCADE_SCALE_FACTOR", 1.05),
		CascadeMinNeighbors: getEnvInt("CASCADE_MIN_NEIGHBORS", 5),
		CascadeMinSize:      getEnvInt("CASCADE_MIN_SIZE", 30),

		// Tracking
		MaxAssocDistance: getEnvFloat("MAX_ASSOC_DISTANCE", 50.0),
		MaxMissedFrames:  getEnvInt("MAX_MISSED_FRAMES", 3),
		MaxLostFrames:    getEnvInt("MAX_LOST_FRAMES", 10),
		TrackHistory:     getEnvInt("TRACK_HISTORY", 32),

		// Counting
		CountLines: lines,
		CountZones: zones,

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsSubject:        getEnv("NATS_SUBJECT", "counts.events"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDrainTimeout:   getEnvDuration("NATS_DRAIN_TIMEOUT", 5*time.Second),

		// Recording
		RecordEnabled: getEnvBool("RECORD_ENABLED", false),
		RecordPath:    getEnv("RECORD_PATH", "output/annotated.avi"),
		RecordFPS:     getEnvFloat("RECORD_FPS", 25.0),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	return float32(getEnvFloat(key, float64(defaultValue)))
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
