package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"network/logger"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalDuration   int64
}

type Config struct {
	BaseURL        string
	Workers        int
	Duration       int
	Users          int
	RequestsPerSec int
}

type session struct {
	username string
	token    string
}

var stats Stats

// loadgen drives a running server with a mix of reads, posts and toggles.
func main() {
	conf := parseFlags()
	if err := logger.Init("info"); err != nil {
		panic(err)
	}
	defer func() { _ = logger.L.Sync() }()

	client := &http.Client{
		Timeout: 10 * time.Second,
		// keep the session cookie of the 302 instead of following it
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	sessions := make([]session, 0, conf.Users)
	for i := 0; i < conf.Users; i++ {
		s, err := register(client, conf.BaseURL)
		if err != nil {
			logger.L.Fatal("failed to register load user", zap.Error(err))
		}
		sessions = append(sessions, s)
	}
	logger.L.Info("load users registered", zap.Int("users", len(sessions)))

	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	requestsPerWorker := conf.RequestsPerSec / conf.Workers
	if requestsPerWorker == 0 {
		requestsPerWorker = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < conf.Workers; i++ {
		wg.Add(1)
		go worker(i, client, conf, sessions, requestsPerWorker, done, &wg)
	}

	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }
	if conf.Duration > 0 {
		go func() {
			time.Sleep(time.Duration(conf.Duration) * time.Second)
			stop()
		}()
	}
	go func() {
		<-sigChan
		logger.L.Info("received interrupt signal, shutting down")
		stop()
	}()

	wg.Wait()
	printFinalStats()
}

func parseFlags() Config {
	conf := Config{}
	flag.StringVar(&conf.BaseURL, "url", "http://localhost:8080", "Service URL")
	flag.IntVar(&conf.Workers, "workers", 10, "Number of concurrent workers")
	flag.IntVar(&conf.Duration, "duration", 60, "Test duration in seconds (0 for infinite)")
	flag.IntVar(&conf.Users, "users", 20, "Number of users to register")
	flag.IntVar(&conf.RequestsPerSec, "rps", 100, "Requests per second target")
	flag.Parse()
	if conf.Workers < 1 {
		conf.Workers = 1
	}
	if conf.Users < 2 {
		conf.Users = 2
	}
	return conf
}

func register(client *http.Client, baseURL string) (session, error) {
	username := fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(1, 1_000_000))
	password := gofakeit.Password(true, true, true, false, false, 12)
	body, _ := json.Marshal(map[string]string{
		"username":     username,
		"email":        gofakeit.Email(),
		"password":     password,
		"confirmation": password,
	})
	resp, err := client.Post(baseURL+"/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return session{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		data, _ := io.ReadAll(resp.Body)
		return session{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}
	for _, c := range resp.Cookies() {
		if c.Name == "sessionid" {
			return session{username: username, token: c.Value}, nil
		}
	}
	return session{}, errors.New("no session cookie in response")
}

func worker(id int, client *http.Client, conf Config, sessions []session, requestsPerSec int, done chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(requestsPerSec))
	defer ticker.Stop()

	var lastPostID int64
	for {
		select {
		case <-done:
			logger.L.Debug("worker stopping", zap.Int("worker", id))
			return
		case <-ticker.C:
			me := sessions[gofakeit.Number(0, len(sessions)-1)]
			other := sessions[gofakeit.Number(0, len(sessions)-1)]

			start := time.Now()
			var err error
			switch op := gofakeit.Number(0, 4); {
			case op == 0:
				lastPostID, err = createPost(client, conf.BaseURL, me)
			case op == 1 && lastPostID > 0:
				err = call(client, http.MethodPut, fmt.Sprintf("%s/posts/%d/like", conf.BaseURL, lastPostID), me, nil)
			case op == 2 && other.username != me.username:
				err = call(client, http.MethodPost, fmt.Sprintf("%s/profile/%s/follow", conf.BaseURL, other.username), me, nil)
			case op == 3 && lastPostID > 0:
				err = call(client, http.MethodPost, fmt.Sprintf("%s/posts/%d/comment", conf.BaseURL, lastPostID), me,
					map[string]string{"content": gofakeit.Phrase()})
			default:
				err = call(client, http.MethodGet, fmt.Sprintf("%s/?page=%d", conf.BaseURL, gofakeit.Number(1, 5)), me, nil)
			}

			atomic.AddInt64(&stats.TotalRequests, 1)
			atomic.AddInt64(&stats.TotalDuration, time.Since(start).Milliseconds())
			if err != nil {
				atomic.AddInt64(&stats.FailedRequests, 1)
				logger.L.Debug("request failed", zap.Error(err))
			} else {
				atomic.AddInt64(&stats.SuccessRequests, 1)
			}
		}
	}
}

func createPost(client *http.Client, baseURL string, s session) (int64, error) {
	var out struct {
		Post struct {
			ID int64 `json:"id"`
		} `json:"post"`
	}
	req, err := newRequest(http.MethodPost, baseURL+"/posts/create", s, map[string]string{"content": gofakeit.Phrase()})
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Post.ID, nil
}

func newRequest(method, url string, s session, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return req, nil
}

func call(client *http.Client, method, url string, s session, payload interface{}) error {
	req, err := newRequest(method, url, s, payload)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func printFinalStats() {
	total := atomic.LoadInt64(&stats.TotalRequests)
	var avg float64
	if total > 0 {
		avg = float64(atomic.LoadInt64(&stats.TotalDuration)) / float64(total)
	}
	logger.L.Info("load test finished",
		zap.Int64("total", total),
		zap.Int64("success", atomic.LoadInt64(&stats.SuccessRequests)),
		zap.Int64("failed", atomic.LoadInt64(&stats.FailedRequests)),
		zap.Float64("avg_ms", avg))
}
