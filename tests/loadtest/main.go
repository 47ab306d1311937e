// Command loadtest drives a running sink with one producer session, rival
// producers and display readers, and prints latency percentiles per endpoint.
package main

import (
	"bytes"
	"flag"
	"fmt"
	json "github.com/goccy/go-json"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"statpulse/internal/models"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	numWorkers  = 50
	numEntities = 200
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

type loadTest struct {
	baseURL   string
	sessionID string
	likes     atomic.Int64
}

func main() {
	baseURL := flag.String("sink", "http://127.0.0.1:6767", "sink base url")
	duration := flag.Duration("duration", 10*time.Second, "length of each phase")
	flag.Parse()

	lt := &loadTest{baseURL: strings.TrimRight(*baseURL, "/"), sessionID: fmt.Sprintf("sp-load-%d", time.Now().UnixMilli())}

	fmt.Println("=== statpulse sink load test ===")
	fmt.Printf("Workers: %d | Phase: %s | Entities: %d\n\n", numWorkers, *duration, numEntities)

	fmt.Print("Claiming session... ")
	if r := lt.heartbeat(lt.sessionID, http.StatusOK); r.err {
		fmt.Println("FAILED: sink refused the heartbeat or is not running")
		return
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: pushes from the session holder ---")
	runPhase(*duration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.1 {
			return lt.heartbeat(lt.sessionID, http.StatusOK)
		}
		return lt.push(rng)
	})

	fmt.Println("\n--- Phase 2: mixed (40% push, 10% rival heartbeat, 50% status) ---")
	runPhase(*duration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.40:
			return lt.push(rng)
		case r < 0.50:
			return lt.heartbeat(fmt.Sprintf("sp-rival-%d", rng.Intn(10)), http.StatusConflict)
		default:
			return lt.get("/api/status")
		}
	})

	fmt.Println("\n--- Phase 3: display readers (90% status, 10% notifications) ---")
	runPhase(*duration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.9 {
			return lt.get("/api/status")
		}
		return lt.get("/api/notifications")
	})
}

func (lt *loadTest) heartbeat(id string, want int) result {
	body, _ := json.Marshal(models.HeartbeatRequest{SessionID: id})
	return lt.post("/api/heartbeat", body, want)
}

func (lt *loadTest) push(rng *rand.Rand) result {
	likes := lt.likes.Add(1)
	entities := make([]models.EntitySnapshot, 0, 10)
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("v%03d", rng.Intn(numEntities))
		entities = append(entities, models.EntitySnapshot{
			Key:      key,
			Title:    "Load video " + key,
			Views48h: rng.Int63n(100000),
			Views60m: rng.Int63n(1000),
		})
	}
	req := models.DataRequest{
		SessionID: lt.sessionID,
		Data: &models.Snapshot{
			Timestamp:  time.Now().UnixMilli(),
			TotalLikes: likes,
			Entities:   entities,
		},
	}
	if rng.Float64() < 0.3 {
		req.Notifications = []models.NotificationEvent{{
			EntityKey: entities[0].Key,
			Title:     entities[0].Title,
			Kind:      models.KindLikes,
			OldCount:  likes - 1,
			NewCount:  likes,
		}}
	}
	body, _ := json.Marshal(req)
	return lt.post("/api/data", body, http.StatusOK)
}

func (lt *loadTest) post(path string, body []byte, want int) result {
	endpoint := "POST " + path
	start := time.Now()
	resp, err := httpClient.Post(lt.baseURL+path, "application/json", bytes.NewReader(body))
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, lat, resp.StatusCode != want}
}

func (lt *loadTest) get(path string) result {
	endpoint := "GET " + path
	start := time.Now()
	resp, err := httpClient.Get(lt.baseURL + path)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, lat, resp.StatusCode != http.StatusOK}
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	all := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := all[r.endpoint]
			if !ok {
				s = &stats{}
				all[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(all, duration)
}

func printResults(all map[string]*stats, duration time.Duration) {
	var totalOps, totalErrors int64

	endpoints := make([]string, 0, len(all))
	for ep := range all {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-28s %8s %6s %10s %10s %10s\n", "Endpoint", "Reqs", "Errs", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 80))

	for _, ep := range endpoints {
		s := all[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
		fmt.Printf("  %-28s %8d %6d %10s %10s %10s\n", ep, s.count, s.errors,
			fmtDur(percentile(s.latencies, 0.50)), fmtDur(percentile(s.latencies, 0.95)), fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	fmt.Println("  " + strings.Repeat("-", 80))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
