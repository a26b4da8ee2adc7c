package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
)

// Pinger is a dependency whose connectivity is reported by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	DB    string `json:"db"`
	Cache string `json:"cache"`
}

// Health checks the database and, when configured, the cache. It never
// exposes connection details.
func Health(db *gorm.DB, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := healthResponse{DB: "connected", Cache: "disabled"}
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			resp.DB = "error"
		}
		if cache != nil {
			resp.Cache = "connected"
			if err := cache.Ping(ctx); err != nil {
				apierror.Logger(r).Warn().Err(err).Msg("cache ping failed")
				resp.Cache = "error"
			}
		}

		status := http.StatusOK
		if resp.DB != "connected" || resp.Cache == "error" {
			status = http.StatusServiceUnavailable
		}
		resp.OK = status == http.StatusOK
		apierror.JSON(w, status, resp)
	}
}
