// Command shadow_compare replays read-only requests against the Go API and
// the legacy inscription/soutenance services and reports response drift.
// Volatile fields (ids, timestamps) are stripped before comparing bodies.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetsFile struct {
	IgnoreKeys []string `json:"ignoreKeys"`
	Targets    []target `json:"targets"`
}

type result struct {
	target       target
	goStatus     int
	legacyStatus int
	statusMatch  bool
	bodyMatch    bool
	err          error
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)
	flag.StringVar(&goBase, "go-base", envOr("SHADOW_GO_BASE", "http://localhost:8080"), "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", envOr("SHADOW_LEGACY_BASE", "http://localhost:8081"), "legacy API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	cfg, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	breaking := 0
	for _, tgt := range cfg.Targets {
		res := compare(client, goBase, legacyBase, tgt, cfg.IgnoreKeys)
		report(res)
		if tgt.Critical && (res.err != nil || !res.statusMatch || !res.bodyMatch) {
			breaking++
		}
	}

	fmt.Printf("breaking diffs: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadTargets(path string) (*targetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg targetsFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return &cfg, nil
}

func compare(client *http.Client, goBase, legacyBase string, tgt target, ignore []string) result {
	res := result{target: tgt}

	goBody, goStatus, err := fetch(client, goBase, tgt)
	if err != nil {
		res.err = fmt.Errorf("go request: %w", err)
		return res
	}
	legacyBody, legacyStatus, err := fetch(client, legacyBase, tgt)
	if err != nil {
		res.err = fmt.Errorf("legacy request: %w", err)
		return res
	}

	res.goStatus = goStatus
	res.legacyStatus = legacyStatus
	res.statusMatch = goStatus == legacyStatus
	res.bodyMatch = bodiesEqual(goBody, legacyBody, ignore)
	return res
}

func fetch(client *http.Client, base string, tgt target) ([]byte, int, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	url := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(tgt.Path, "/")
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func bodiesEqual(a, b []byte, ignore []string) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return string(a) == string(b)
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	strip(&aj, ignore)
	strip(&bj, ignore)
	return reflect.DeepEqual(aj, bj)
}

// strip removes ignored keys and normalizes whole-valued floats so that
// integer ids survive the round trip through encoding/json.
func strip(v *interface{}, ignore []string) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for _, key := range ignore {
			delete(val, key)
		}
		for k, child := range val {
			strip(&child, ignore)
			val[k] = child
		}
	case []interface{}:
		for i, child := range val {
			strip(&child, ignore)
			val[i] = child
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(res result) {
	status := "OK"
	switch {
	case res.err != nil:
		status = "ERROR"
	case !res.statusMatch || !res.bodyMatch:
		status = "DIFF"
	}
	fmt.Printf("[%s] %s %s\n", status, res.target.Method, res.target.Path)
	if res.err != nil {
		fmt.Printf("  error: %v\n", res.err)
		return
	}
	fmt.Printf("  go=%d legacy=%d status_match=%t body_match=%t critical=%t\n",
		res.goStatus, res.legacyStatus, res.statusMatch, res.bodyMatch, res.target.Critical)
}
