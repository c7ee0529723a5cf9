package config

import (
	"os"
	"strconv"
)

type Runtime struct {
	HTTPAddr      string
	CacheMaxItems int
	ObsBuffer     int
	TieTolerance  float64
	MaxProfiles   int
}

func Load() Runtime {
	return Runtime{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		CacheMaxItems: getenvInt("MACID_CACHE_MAX_ITEMS", 1024, 1),
		ObsBuffer:     getenvInt("MACID_OBS_BUFFER", 4096, 1),
		TieTolerance:  getenvFloat("MACID_TIE_TOLERANCE", 0, 0),
		MaxProfiles:   getenvInt("MACID_MAX_PROFILES", 1_000_000, 1),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}

func getenvFloat(key string, fallback, min float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < min {
		return fallback
	}
	return v
}
