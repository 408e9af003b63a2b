// Package main implements the rfx CLI for manual operations against the reflectd HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the reflectd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rfx",
	Short: "CLI for reflectd HTTP server operations",
	Long: `rfx is a command-line interface for interacting with the reflectd HTTP server.
It submits tasks to the draft-critique-revise pipeline and checks server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "reflectd server URL")
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statusCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check reflectd server health",
	Long: `Check the health status of the reflectd HTTP server.

Examples:
  # Check health
  rfx health

  # Check health on a different server
  rfx health --server http://localhost:8080`,
	RunE: runHealth,
}

// statusCmd reports daemon run counters
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reflectd run counters",
	Long: `Show the reflectd daemon's version and run counters since startup.

Examples:
  # Show status
  rfx status`,
	RunE: runStatus,
}

// HealthResponse matches internal/http/types.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse matches internal/http/types.go StatusResponse
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts matches internal/http/types.go StatusCounts
type StatusCounts struct {
	Runs     int64 `json:"runs"`
	Failures int64 `json:"failures"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	healthResp, err := doHealth(serverURL)
	if err != nil {
		return err
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}

// runStatus handles the status command
func runStatus(cmd *cobra.Command, args []string) error {
	statusResp, err := doStatus(serverURL)
	if err != nil {
		return err
	}

	fmt.Printf("Server Status: %s\n", statusResp.Status)
	if statusResp.Version != "" {
		fmt.Printf("Version:       %s\n", statusResp.Version)
	}
	fmt.Printf("Runs:          %d\n", statusResp.Counts.Runs)
	fmt.Printf("Failures:      %d\n", statusResp.Counts.Failures)

	return nil
}

// doHealth fetches the health endpoint.
func doHealth(baseURL string) (*HealthResponse, error) {
	url := fmt.Sprintf("%s/health", baseURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &healthResp, nil
}

// doStatus fetches the status endpoint.
func doStatus(baseURL string) (*StatusResponse, error) {
	url := fmt.Sprintf("%s/api/v1/status", baseURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var statusResp StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &statusResp, nil
}

// statusError builds an error from a non-200 response, including the body.
func statusError(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
}
