package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Camera      CameraConfig
	Engine      EngineConfig
	Device      DeviceConfig
	Database    DatabaseConfig
	Recognition RecognitionConfig
	Capture     CaptureConfig
}

type CameraConfig struct {
	URL            string        // snapshot endpoint of the camera (one JPEG per pull)
	ConnectTimeout time.Duration // timeout for opening the source
	ReadTimeout    time.Duration // per-frame read timeout
}

type EngineConfig struct {
	URL string // face detection/embedding service base URL
	Dim int    // embedding dimensionality, defaults to 512
}

type DeviceConfig struct {
	Addr    string        // confirmation display device, host:port
	Timeout time.Duration // connect + read timeout, defaults to 30s
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

type RecognitionConfig struct {
	MatchThreshold  float64       // accept threshold for live recognition
	StrictThreshold float64       // stricter threshold for immediate confirmation
	VerifyThreshold float64       // 1:1 verification threshold
	Deadline        time.Duration // wall-clock budget for one recognition pass
}

type CaptureConfig struct {
	TargetSamples    int     // embeddings to collect per enrollment
	MinSamples       int     // minimum valid samples before aborting
	WarmupFrames     int     // frames discarded for camera stabilization
	MADMultiplier    float64 // outlier threshold multiplier over MAD
	StdDevMultiplier float64 // fallback multiplier over stddev
}

// thresholdsFile mirrors the embedded thresholds.yaml layout.
type thresholdsFile struct {
	Thresholds struct {
		Match        float64 `yaml:"match"`
		Strict       float64 `yaml:"strict"`
		Verification float64 `yaml:"verification"`
	} `yaml:"thresholds"`
	Outliers struct {
		MADMultiplier    float64 `yaml:"mad_multiplier"`
		StdDevMultiplier float64 `yaml:"stddev_multiplier"`
	} `yaml:"outliers"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration ("2s", "500ms").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var tf thresholdsFile
	if err := yaml.Unmarshal(thresholdsYAML, &tf); err != nil {
		// Embedded file, so this should never happen in practice.
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	return &Config{
		Camera: CameraConfig{
			URL:            os.Getenv("CAMERA_URL"),
			ConnectTimeout: envDuration("CAMERA_CONNECT_TIMEOUT", 30*time.Second),
			ReadTimeout:    envDuration("CAMERA_READ_TIMEOUT", 2*time.Second),
		},
		Engine: EngineConfig{
			URL: envString("ENGINE_URL", "http://localhost:8000"),
			Dim: envInt("ENGINE_DIM", 512),
		},
		Device: DeviceConfig{
			Addr:    os.Getenv("DEVICE_ADDR"),
			Timeout: envDuration("DEVICE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Recognition: RecognitionConfig{
			MatchThreshold:  envFloat("MATCH_THRESHOLD", tf.Thresholds.Match),
			StrictThreshold: envFloat("STRICT_THRESHOLD", tf.Thresholds.Strict),
			VerifyThreshold: envFloat("VERIFY_THRESHOLD", tf.Thresholds.Verification),
			Deadline:        envDuration("RECOGNITION_DEADLINE", 2*time.Second),
		},
		Capture: CaptureConfig{
			TargetSamples:    envInt("CAPTURE_TARGET_SAMPLES", 10),
			MinSamples:       envInt("CAPTURE_MIN_SAMPLES", 5),
			WarmupFrames:     envInt("CAPTURE_WARMUP_FRAMES", 2),
			MADMultiplier:    envFloat("MAD_MULTIPLIER", tf.Outliers.MADMultiplier),
			StdDevMultiplier: envFloat("STDDEV_MULTIPLIER", tf.Outliers.StdDevMultiplier),
		},
	}
}
