package testbattles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTP status code constants.
const (
	statusOK = 200
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON.
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// runBattles plays the scripted battles concurrently using a worker pool.
func runBattles(ctx context.Context, config *Config, battles []Battle, stats *Stats) error {
	log.Printf("⚔️  Running %d battles with %d workers...", len(battles), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/battle"

	var (
		successful int64
		rejected   int64
		failed     int64
		submitted  int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	battleChan := make(chan Battle, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for battle := range battleChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := playSingleBattle(ctx, client, url, battle)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						rej := atomic.LoadInt64(&rejected)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d battles (success: %d, rejected: %d, failed: %d)",
								total, len(battles), succ, rej, fail)
						} else {
							fmt.Printf("\r⚔️  Battles: %d/%d (success: %d, rejected: %d, failed: %d)",
								total, len(battles), succ, rej, fail)
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(battleChan)
		for _, battle := range battles {
			select {
			case <-ctx.Done():
				return
			case battleChan <- battle:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println()
	}

	stats.BattlesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.BattlesSuccessful = int(atomic.LoadInt64(&successful))
	stats.BattlesRejected = int(atomic.LoadInt64(&rejected))
	stats.BattlesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Battle run completed:
   Successful: %d
   Rejected: %d
   Failed: %d
`, stats.BattlesSuccessful, stats.BattlesRejected, stats.BattlesFailed)

	return nil
}

// playSingleBattle drives one session start-to-verdict and reports how far
// it got. A 4xx anywhere mid-script means the engine rejected the battle.
func playSingleBattle(ctx context.Context, client *HTTPClient, url string, battle Battle) string {
	script := append(battle.Messages, battle.Outcome)
	for i, message := range script {
		// The start directive carries the session id itself.
		sessionID := battle.SessionID
		if i == 0 {
			sessionID = ""
		}

		resp, err := client.Post(ctx, url, map[string]string{
			"message":    message,
			"session_id": sessionID,
		})
		if err != nil {
			return "failed"
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == statusOK:
			continue
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return "rejected"
		default:
			return "failed"
		}
	}
	return "success"
}

// getLeaderboard fetches the final board after all battles resolve.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Row, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/leaderboard")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != statusOK {
		return nil, fmt.Errorf("leaderboard request failed with status: %d", resp.StatusCode)
	}

	var rows []Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}

	stats.LeaderboardEntries = len(rows)
	return rows, nil
}
