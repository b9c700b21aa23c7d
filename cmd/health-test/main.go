package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Small smoke-test client for the /health endpoint. Exits non-zero when the
// server or its database is unhealthy, so it can back a container healthcheck.
func main() {
	base := os.Getenv("HEALTH_URL")
	if base == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		base = "http://localhost:" + port + "/health"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
		Services  map[string]struct {
			Status string `json:"status"`
		} `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Fprintf(os.Stderr, "health check returned unparseable body: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("status=%s http=%d\n", body.Status, resp.StatusCode)
	for name, svc := range body.Services {
		fmt.Printf("  %s: %s\n", name, svc.Status)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		os.Exit(1)
	}
}
