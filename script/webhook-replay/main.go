package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerbixa/payment-reconciler/internal/domain/usecase/webhook"
)

// DeliveryResult contains metrics for a single delivery
type DeliveryResult struct {
	StatusCode   int
	ResponseTime time.Duration
	Error        error
}

// ReplayStats contains aggregated replay statistics
type ReplayStats struct {
	TotalRequests   int
	StatusCounts    map[int]int
	ErrorCounts     map[string]int
	ResponseTimes   []time.Duration
	TotalTime       time.Duration
	MinResponseTime time.Duration
	MaxResponseTime time.Duration
	Lock            sync.Mutex
}

func main() {
	concurrency := flag.Int("c", 10, "Number of concurrent goroutines")
	totalRequests := flag.Int("n", 50, "Number of identical deliveries to send")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	provider := flag.String("provider", "secure-processor", "Webhook route: networx or secure-processor")
	secret := flag.String("secret", os.Getenv("NRX_SECURE_PROCESSOR_SECRET_KEY"), "Shared secret used to sign the payload")
	trackingID := flag.String("user", "user_replay", "tracking_id (user id) to credit")
	tokens := flag.Int("tokens", 50, "Token count written into the description")
	txID := flag.String("tx", "", "Provider transaction id; random when empty")
	status := flag.String("status", "successful", "Transaction status")
	flag.Parse()

	if *txID == "" {
		*txID = "replay-" + uuid.NewString()
	}

	transaction := map[string]any{
		"uid":                 *txID,
		"tracking_id":         *trackingID,
		"status":              *status,
		"amount":              1250,
		"currency":            "USD",
		"description":         fmt.Sprintf("Replay pack (%d tokens)", *tokens),
		"payment_method_type": "credit_card",
		"paid_at":             time.Now().UTC().Format(time.RFC3339),
	}
	signature := webhook.Sign(transaction, *secret)

	body, err := json.Marshal(map[string]any{"transaction": transaction})
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal payload:", err)
		os.Exit(1)
	}

	endpoint := fmt.Sprintf("%s/api/webhooks/%s", *baseURL, *provider)
	fmt.Printf("Replaying transaction %s to %s\n", *txID, endpoint)
	fmt.Printf("Concurrency: %d goroutines, deliveries: %d\n", *concurrency, *totalRequests)
	fmt.Printf("Expected effect: exactly one credit of %d tokens to %s\n", *tokens, *trackingID)

	stats := &ReplayStats{
		TotalRequests:   *totalRequests,
		StatusCounts:    make(map[int]int),
		ErrorCounts:     make(map[string]int),
		ResponseTimes:   make([]time.Duration, 0, *totalRequests),
		MinResponseTime: time.Hour,
	}

	client := &http.Client{Timeout: 30 * time.Second}
	jobs := make(chan int, *totalRequests)
	results := make(chan DeliveryResult, *totalRequests)

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				results <- deliver(client, endpoint, body, signature)
			}
		}()
	}

	for i := 0; i < *totalRequests; i++ {
		jobs <- i
	}
	close(jobs)

	startTime := time.Now()
	wg.Wait()
	close(results)
	stats.TotalTime = time.Since(startTime)

	for r := range results {
		stats.record(r)
	}
	stats.print()
}

func deliver(client *http.Client, endpoint string, body []byte, signature string) DeliveryResult {
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{Error: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signature)

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return DeliveryResult{ResponseTime: elapsed, Error: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return DeliveryResult{StatusCode: resp.StatusCode, ResponseTime: elapsed}
}

func (s *ReplayStats) record(r DeliveryResult) {
	s.Lock.Lock()
	defer s.Lock.Unlock()

	if r.Error != nil {
		s.ErrorCounts[r.Error.Error()]++
		return
	}
	s.StatusCounts[r.StatusCode]++
	s.ResponseTimes = append(s.ResponseTimes, r.ResponseTime)
	if r.ResponseTime < s.MinResponseTime {
		s.MinResponseTime = r.ResponseTime
	}
	if r.ResponseTime > s.MaxResponseTime {
		s.MaxResponseTime = r.ResponseTime
	}
}

func (s *ReplayStats) print() {
	fmt.Println("\n=== Replay Results ===")
	fmt.Printf("Total time: %v\n", s.TotalTime)

	codes := make([]int, 0, len(s.StatusCounts))
	for code := range s.StatusCounts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("HTTP %d: %d\n", code, s.StatusCounts[code])
	}
	for msg, count := range s.ErrorCounts {
		fmt.Printf("Transport error (%d): %s\n", count, msg)
	}

	if len(s.ResponseTimes) > 0 {
		sort.Slice(s.ResponseTimes, func(i, j int) bool { return s.ResponseTimes[i] < s.ResponseTimes[j] })
		p95 := s.ResponseTimes[len(s.ResponseTimes)*95/100]
		fmt.Printf("Response time min/p95/max: %v / %v / %v\n", s.MinResponseTime, p95, s.MaxResponseTime)
	}

	fmt.Println("Check the user's balance: a correct server credits once however many deliveries returned 200.")
}
