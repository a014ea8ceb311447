package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	LastLoaded string `json:"last_loaded,omitempty"`
	Usage      string `json:"usage,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		lastLoaded := d.Live.LastLoaded()
		lastLoadedStr := "never"
		if !lastLoaded.IsZero() {
			lastLoadedStr = lastLoaded.Format("2006-01-02 15:04:05")
		}

		redisStatus := checkRedis(d)

		components := map[string]componentStatus{
			"document": {
				OK:         !lastLoaded.IsZero(),
				LastLoaded: lastLoadedStr,
			},
			"redis": redisStatus,
		}

		if redisStatus.OK {
			usage := d.Adapter.Usage(r.Context())
			components["storage"] = componentStatus{
				OK:    !usage.IsWarning,
				Usage: usage.Formatted,
			}
		}

		response := infraResponse{
			Mode:       determineMode(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// determineMode folds component health into a single word. Redis down
// means reads still work off memory but writes are lost: degraded, not
// dead. A usage warning is a nudge, not an outage.
func determineMode(components map[string]componentStatus) string {
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded"
	}
	if storage, exists := components["storage"]; exists && !storage.OK {
		return "near-quota"
	}
	return "ok"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Impact: "writes-lost",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "writes-lost",
			Error:  err.Error(),
		}
	}

	return componentStatus{OK: true}
}
