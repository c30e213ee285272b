// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shakah/recomenda-ia/internal/api"
	"github.com/shakah/recomenda-ia/internal/telemetry"
)

func main() {
	config, err := GetConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	closeLog, err := telemetry.SetupLogging(config.Telemetry)
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer closeLog()
	slog.Info("Logging initialized", "level", config.Telemetry.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()
	slog.Info("Tracing initialized", "exporter", config.Telemetry.Exporter)

	if err := InitState(ctx, config); err != nil {
		slog.Error("Failed to initialize state", "error", err)
		log.Fatal(err)
	}
	defer func() {
		if err := CloseState(); err != nil {
			slog.Error("failed to close state", "error", err)
		}
	}()
	slog.Info("Initialized State", "storage", config.Storage.Backend)

	gin.SetMode(gin.ReleaseMode)
	r := api.NewRouter(&api.Handler{
		Recommendations: state.recommendations,
		Lists:           state.lists,
		Trailers:        state.trailers,
		Posters:         state.posters,
	}, config.Server, config.Application.Name)

	srv := &http.Server{
		Addr:    config.Server.Address,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			stop()
		}
	}()
	slog.Info("Server Ready", "address", config.Server.Address)

	<-ctx.Done()
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(config.Server.ShutdownTimeoutSeconds)*time.Second)
	defer shutdownCancel()
	// Ends the running search so its stream closes before Shutdown waits on it.
	state.recommendations.Cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	slog.Info("Server exiting")
}
