// Command cache_probe checks that the console's cached reads agree with the
// upstream school API and that repeated reads are served from cache.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
)

type target struct {
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type probe struct {
	Target       target
	ConsoleCold  time.Duration
	ConsoleWarm  time.Duration
	Upstream     time.Duration
	WarmCacheHit bool
	Diff         string
	Error        error
}

type envelope struct {
	Data json.RawMessage        `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func main() {
	var (
		consoleBase  string
		upstreamBase string
		targetsPath  string
		token        string
		timeout      time.Duration
	)

	flag.StringVar(&consoleBase, "console-base", "http://localhost:8090/api/v1", "Admin console base URL")
	flag.StringVar(&upstreamBase, "upstream-base", "http://localhost:8080/api/v1", "School API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "cache_probe", "targets.json"), "Path to JSON targets file")
	flag.StringVar(&token, "token", os.Getenv("API_TOKEN"), "Bearer token sent to both services")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []probe
		breaking int
		warnings int
	)
	for _, t := range targets {
		res := probeTarget(client, consoleBase, upstreamBase, token, t)
		if res.Error != nil || res.Diff != "" {
			if t.Critical {
				breaking++
			} else {
				warnings++
			}
		} else if !res.WarmCacheHit {
			warnings++
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking diffs: %d, Warnings: %d\n", breaking, warnings)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func probeTarget(client *http.Client, consoleBase, upstreamBase, token string, tgt target) probe {
	res := probe{Target: tgt}

	cold, coldDur, err := fetch(client, consoleBase, token, tgt.Path)
	res.ConsoleCold = coldDur
	if err != nil {
		res.Error = fmt.Errorf("console request failed: %w", err)
		return res
	}
	warm, warmDur, err := fetch(client, consoleBase, token, tgt.Path)
	res.ConsoleWarm = warmDur
	if err != nil {
		res.Error = fmt.Errorf("console request failed: %w", err)
		return res
	}
	upstream, upDur, err := fetch(client, upstreamBase, token, tgt.Path)
	res.Upstream = upDur
	if err != nil {
		res.Error = fmt.Errorf("upstream request failed: %w", err)
		return res
	}

	var coldEnv, warmEnv envelope
	if err := json.Unmarshal(cold, &coldEnv); err != nil {
		res.Error = fmt.Errorf("decode console body: %w", err)
		return res
	}
	if err := json.Unmarshal(warm, &warmEnv); err != nil {
		res.Error = fmt.Errorf("decode console body: %w", err)
		return res
	}
	hit, _ := warmEnv.Meta["cache_hit"].(bool)
	res.WarmCacheHit = hit

	want, err := decode(unwrap(upstream))
	if err != nil {
		res.Error = fmt.Errorf("decode upstream body: %w", err)
		return res
	}
	got, err := decode(warmEnv.Data)
	if err != nil {
		res.Error = fmt.Errorf("decode console data: %w", err)
		return res
	}
	res.Diff = cmp.Diff(want, got)
	return res
}

func fetch(client *http.Client, base, token, path string) ([]byte, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, elapsed, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, elapsed, nil
}

// unwrap accepts both bare and {"data": ...} upstream bodies.
func unwrap(body []byte) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return body
}

func decode(raw []byte) (interface{}, error) {
	var v interface{}
	if len(raw) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func printReport(results []probe) {
	fmt.Println("Cache Probe Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case res.Diff != "":
			status = "DIFF"
		case !res.WarmCacheHit:
			status = "MISS"
		}
		fmt.Printf("[%s] GET %s\n", status, res.Target.Path)
		fmt.Printf("  Console cold: %s | warm: %s | upstream: %s\n", res.ConsoleCold, res.ConsoleWarm, res.Upstream)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Warm cache hit: %t | Critical: %t\n", res.WarmCacheHit, res.Target.Critical)
		if res.Diff != "" {
			fmt.Printf("  Diff (-upstream +console):\n%s\n", res.Diff)
		}
	}
}
