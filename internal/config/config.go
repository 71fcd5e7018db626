package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	API      *APIconfig
	WS       *WebSocketconfig
	Tracking *Trackingconfig
	Storage  *Storageconfig
	Log      *Loggerconfig
}

type APIconfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type WebSocketconfig struct {
	Scheme           string
	Host             string
	Path             string
	ReconnectBackoff time.Duration
	HeartbeatPeriod  time.Duration
}

type Trackingconfig struct {
	MountGracePeriod time.Duration
	NavigateDelay    time.Duration
	AvgSpeedKmh      float64
	StartupBufferMin int
}

type Storageconfig struct {
	Path string
}

type Loggerconfig struct {
	Level string
}

func New() (*Config, error) {
	getEnv := func(key, def string) string {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		return val
	}

	getEnvSeconds := func(key string, def time.Duration) time.Duration {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			return def
		}
		return time.Duration(val) * time.Second
	}

	scheme := getEnv("SETU_WS_SCHEME", "ws")
	if scheme != "ws" && scheme != "wss" {
		return nil, fmt.Errorf("invalid websocket scheme %q", scheme)
	}

	cnf := &Config{
		API: &APIconfig{
			BaseURL:        getEnv("SETU_API_URL", "http://localhost:8000"),
			RequestTimeout: getEnvSeconds("SETU_API_TIMEOUT", 10*time.Second),
		},
		WS: &WebSocketconfig{
			Scheme:           scheme,
			Host:             getEnv("SETU_BACKEND_HOST", "localhost:8000"),
			Path:             getEnv("SETU_WS_PATH", "/ws/job_notifications/"),
			ReconnectBackoff: getEnvSeconds("SETU_WS_RECONNECT_BACKOFF", 3*time.Second),
			HeartbeatPeriod:  getEnvSeconds("SETU_WS_HEARTBEAT", 30*time.Second),
		},
		Tracking: &Trackingconfig{
			// Sub-second default, so not expressible through getEnvSeconds.
			MountGracePeriod: 750 * time.Millisecond,
			NavigateDelay:    getEnvSeconds("SETU_NAVIGATE_DELAY", 5*time.Second),
			AvgSpeedKmh:      30,
			StartupBufferMin: 5,
		},
		Storage: &Storageconfig{
			Path: getEnv("SETU_DB_PATH", ""),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}

	return cnf, nil
}
