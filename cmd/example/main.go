// Command example wires Init against environment configuration loaded from
// a .env file and captures a handful of representative events.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/relaycore/telemetry"
	"github.com/relaycore/telemetry/model"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("TELEMETRY_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "TELEMETRY_DSN is required")
		os.Exit(1)
	}

	client, err := telemetry.Init(telemetry.Options{
		DSN:                   dsn,
		Release:               os.Getenv("TELEMETRY_RELEASE"),
		Environment:           envOr("TELEMETRY_ENVIRONMENT", "development"),
		SampleRate:            1,
		TracesSampleRate:      1,
		CacheDir:              envOr("TELEMETRY_CACHE_DIR", os.TempDir()),
		InstallSignalHandlers: true,
		AutoSessionTracking:   true,
		ShutdownTimeout:       5 * time.Second,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "telemetry init failed:", err)
		os.Exit(1)
	}
	defer client.Close()

	client.AddBreadcrumb(model.Breadcrumb{Category: "startup", Message: "example booted"})

	txn := client.StartTransaction("example.run", "example-command")
	defer client.FinishTransaction(txn)

	if err := doWork(); err != nil {
		client.CaptureException("ExampleFailure", err.Error())
	}

	client.CaptureCheckIn(model.CheckInAuto("example-monitor", nowSeconds, doWork))
}

func doWork() error {
	return nil
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
