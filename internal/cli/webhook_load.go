package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/gateway/chargily"
)

type loadOptions struct {
	baseURL     string
	secret      string
	checkouts   []string
	amount      string
	requests    int
	concurrency int
	delay       time.Duration
	failRatio   float64
}

// loadResult contains metrics for a single webhook delivery
type loadResult struct {
	success      bool
	responseTime time.Duration
	statusCode   int
	outcome      string
	err          error
}

// loadStats aggregates a webhook load run
type loadStats struct {
	mu sync.Mutex

	total         int
	successful    int
	failed        int
	totalTime     time.Duration
	responseTimes []time.Duration
	outcomes      map[string]int
	statusCodes   map[int]int
	errorCounts   map[string]int
}

func newLoadStats(total int) *loadStats {
	return &loadStats{
		total:         total,
		responseTimes: make([]time.Duration, 0, total),
		outcomes:      make(map[string]int),
		statusCodes:   make(map[int]int),
		errorCounts:   make(map[string]int),
	}
}

func (s *loadStats) add(r loadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.success {
		s.successful++
	} else {
		s.failed++
		msg := "unknown"
		if r.err != nil {
			msg = r.err.Error()
		}
		s.errorCounts[msg]++
	}
	if r.statusCode > 0 {
		s.statusCodes[r.statusCode]++
	}
	if r.outcome != "" {
		s.outcomes[r.outcome]++
	}
	s.responseTimes = append(s.responseTimes, r.responseTime)
}

func webhookLoadCmd() *cobra.Command {
	opts := loadOptions{}
	var checkouts string

	cmd := &cobra.Command{
		Use:   "webhook-load",
		Short: "Fire concurrent signed gateway webhooks at a running API",
		Long: `Send checkout.paid (and optionally checkout.failed) events signed with the gateway
secret to /payments/webhook. Checkouts are reused across requests, so most deliveries
exercise duplicate suppression and per-payment ordering rather than fresh settlements.

Examples:
  portalctl webhook-load --checkouts chk_01,chk_02 --amount 50000 -n 200 -c 10
  portalctl webhook-load --checkouts chk_01 --fail-ratio 0.3 --delay 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, id := range strings.Split(checkouts, ",") {
				if id = strings.TrimSpace(id); id != "" {
					opts.checkouts = append(opts.checkouts, id)
				}
			}
			if opts.secret == "" {
				opts.secret = os.Getenv("CP_GATEWAY_SECRET_KEY")
			}

			stats, err := runWebhookLoad(cmd.Context(), cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}
			printLoadResults(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "base URL of the API")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "gateway secret key (defaults to CP_GATEWAY_SECRET_KEY)")
	cmd.Flags().StringVar(&checkouts, "checkouts", "", "comma separated checkout ids to settle")
	cmd.Flags().StringVar(&opts.amount, "amount", "50000", "amount carried by paid events")
	cmd.Flags().IntVarP(&opts.requests, "requests", "n", 100, "total number of webhooks")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 5, "number of concurrent senders")
	cmd.Flags().DurationVar(&opts.delay, "delay", 100*time.Millisecond, "pause before each send")
	cmd.Flags().Float64Var(&opts.failRatio, "fail-ratio", 0, "share of checkout.failed events")
	_ = cmd.MarkFlagRequired("checkouts")

	return cmd
}

func runWebhookLoad(ctx context.Context, out io.Writer, opts loadOptions) (*loadStats, error) {
	if len(opts.checkouts) == 0 {
		return nil, errors.New("at least one checkout id is required")
	}
	if opts.secret == "" {
		return nil, errors.New("gateway secret is required to sign webhooks")
	}
	if opts.requests <= 0 || opts.concurrency <= 0 {
		return nil, errors.New("requests and concurrency must be positive")
	}
	amount, err := decimal.NewFromString(opts.amount)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("invalid amount %q", opts.amount)
	}

	endpoint := strings.TrimRight(opts.baseURL, "/") + "/payments/webhook"
	fmt.Fprintf(out, "Sending %d webhooks for %d checkouts to %s with %d senders\n",
		opts.requests, len(opts.checkouts), endpoint, opts.concurrency)

	stats := newLoadStats(opts.requests)
	jobs := make(chan int, opts.requests)
	for i := 0; i < opts.requests; i++ {
		jobs <- i
	}
	close(jobs)

	client := &http.Client{Timeout: 10 * time.Second}
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < opts.concurrency; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for range jobs {
				if ctx.Err() != nil {
					return
				}
				if opts.delay > 0 {
					time.Sleep(opts.delay)
				}
				checkout := opts.checkouts[rng.Intn(len(opts.checkouts))]
				eventType := chargily.EventCheckoutPaid
				if rng.Float64() < opts.failRatio {
					eventType = chargily.EventCheckoutFailed
				}
				stats.add(sendWebhook(ctx, client, endpoint, opts.secret, checkout, eventType, amount))
			}
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()

	stats.totalTime = time.Since(start)
	return stats, ctx.Err()
}

func sendWebhook(ctx context.Context, client *http.Client, endpoint, secret, checkoutID, eventType string, amount decimal.Decimal) loadResult {
	status := "paid"
	if eventType == chargily.EventCheckoutFailed {
		status = "failed"
	}
	body, err := json.Marshal(map[string]any{
		"id":   "evt_" + uuid.NewString(),
		"type": eventType,
		"data": map[string]any{
			"id":     checkoutID,
			"status": status,
			"amount": json.Number(amount.String()),
		},
	})
	if err != nil {
		return loadResult{err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return loadResult{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.SignatureHeader, chargily.Sign(secret, body))

	start := time.Now()
	resp, err := client.Do(req)
	result := loadResult{responseTime: time.Since(start)}
	if err != nil {
		result.err = err
		return result
	}
	defer resp.Body.Close()

	result.statusCode = resp.StatusCode
	result.success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !result.success {
		result.err = fmt.Errorf("HTTP status code %d", resp.StatusCode)
		return result
	}

	var ack dto.WebhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil {
		result.outcome = ack.Outcome
	}
	return result
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func printLoadResults(out io.Writer, stats *loadStats) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	sorted := make([]time.Duration, len(stats.responseTimes))
	copy(sorted, stats.responseTimes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	var avg time.Duration
	if len(sorted) > 0 {
		avg = total / time.Duration(len(sorted))
	}
	var rps float64
	if stats.totalTime > 0 {
		rps = float64(stats.successful) / stats.totalTime.Seconds()
	}

	fmt.Fprintln(out, "\n================= WEBHOOK LOAD RESULTS =================")
	fmt.Fprintf(out, "Total Webhooks:      %d\n", stats.total)
	fmt.Fprintf(out, "Accepted:            %d\n", stats.successful)
	fmt.Fprintf(out, "Rejected:            %d\n", stats.failed)
	fmt.Fprintf(out, "Total Time:          %.2f seconds\n", stats.totalTime.Seconds())
	fmt.Fprintf(out, "Accepted per second: %.2f\n", rps)

	fmt.Fprintln(out, "\n----------------- RESPONSE TIMES -----------------")
	fmt.Fprintf(out, "Average:             %v\n", avg)
	if len(sorted) > 0 {
		fmt.Fprintf(out, "Minimum:             %v\n", sorted[0])
		fmt.Fprintf(out, "Maximum:             %v\n", sorted[len(sorted)-1])
	}
	fmt.Fprintf(out, "P50:                 %v\n", percentile(sorted, 50))
	fmt.Fprintf(out, "P95:                 %v\n", percentile(sorted, 95))
	fmt.Fprintf(out, "P99:                 %v\n", percentile(sorted, 99))

	fmt.Fprintln(out, "\n----------------- OUTCOMES -----------------")
	for _, outcome := range sortedKeys(stats.outcomes) {
		fmt.Fprintf(out, "%-15s: %d\n", outcome, stats.outcomes[outcome])
	}

	fmt.Fprintln(out, "\n----------------- STATUS CODES -----------------")
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "%-15d: %d\n", code, stats.statusCodes[code])
	}

	if stats.failed > 0 {
		fmt.Fprintln(out, "\n----------------- ERRORS -----------------")
		for _, msg := range sortedKeys(stats.errorCounts) {
			fmt.Fprintf(out, "%-40s: %d\n", msg, stats.errorCounts[msg])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
