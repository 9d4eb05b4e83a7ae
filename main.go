package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Scarage1/API-Watch/internal/core/domain"
	"github.com/Scarage1/API-Watch/internal/infra/transport"
	"github.com/Scarage1/API-Watch/internal/runner"
	"github.com/Scarage1/API-Watch/internal/runner/retry"
)

// Quickstart for using the executor as a library. The apiwatch CLI lives in
// cmd/apiwatch.
func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	target := os.Getenv("DEMO_URL")
	if target == "" {
		target = "https://httpbin.org/status/503"
	}

	ctx := context.Background()

	// 1. Create the transport client
	client := transport.NewClient(transport.Options{UserAgent: "apiwatch-demo"})

	// 2. Pick a retry policy
	policy := retry.Config{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}

	// 3. Build the executor
	exec := runner.New(client, policy)

	// 4. Fire a request and watch the attempts
	res, err := exec.Execute(ctx, domain.RequestSpec{
		Method:  "GET",
		URL:     target,
		Timeout: 10 * time.Second,
	})

	fmt.Printf("%s %s\n", res.Method, res.URL)
	for _, a := range res.Trace {
		if a.Responded() {
			fmt.Printf("  attempt %d: HTTP %d in %s\n", a.Number, a.StatusCode, a.Elapsed.Round(time.Millisecond))
		} else {
			fmt.Printf("  attempt %d: %s in %s\n", a.Number, a.ErrorKind, a.Elapsed.Round(time.Millisecond))
		}
	}
	fmt.Printf("Total: %d attempt(s) in %s\n\n", res.Attempts, res.Elapsed.Round(time.Millisecond))

	// 5. Read the verdict
	var exhausted *runner.ExhaustedError
	switch {
	case err == nil:
		fmt.Println("Request succeeded")
	case errors.As(err, &exhausted):
		d := exhausted.Diagnosis
		fmt.Printf("Request failed: %s\n", d.Issue)
		fmt.Printf("  category: %s, severity: %s\n", d.Category, d.Severity)
		fmt.Printf("  cause: %s\n", d.Cause)
		fmt.Printf("  try:   %s\n", d.Suggestion)
	default:
		fmt.Printf("Request could not run: %v\n", err)
	}
}
