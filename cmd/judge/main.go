// Command judge runs the judgment oracle once from the command line and
// prints the verdict as JSON. Useful for smoke-testing prompts and the
// fallback path without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"friendship-court/backend/internal/judge"
	"friendship-court/backend/internal/util"
)

func main() {
	var (
		storyA     = flag.String("a", "", "Person A perspective (or @path to read from a file)")
		storyB     = flag.String("b", "", "Person B perspective (or @path to read from a file)")
		tone       = flag.String("tone", "Gentle", "Judge style: Gentle, Neutral, or Direct")
		heuristics = flag.Bool("heuristic", false, "Skip the LLM and use the heuristic judge directly")
		timeout    = flag.Duration("timeout", 30*time.Second, "Request timeout for the LLM call")
	)
	flag.Parse()

	a, err := resolveStory(*storyA)
	if err != nil {
		logrus.Fatalf("read story a: %v", err)
	}
	b, err := resolveStory(*storyB)
	if err != nil {
		logrus.Fatalf("read story b: %v", err)
	}
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		logrus.Fatal("both -a and -b perspectives are required")
	}

	var llm judge.Judge
	if !*heuristics {
		cfg := judge.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   os.Getenv("OPENAI_MODEL"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Timeout: *timeout,
		}
		if temp := os.Getenv("OPENAI_TEMPERATURE"); temp != "" {
			if v, err := strconv.ParseFloat(temp, 64); err == nil {
				cfg.Temperature = v
			}
		}
		client, err := judge.NewClient(cfg)
		if err == nil {
			llm = client
		} else {
			logrus.WithError(err).Warn("llm judge unavailable, using heuristic")
		}
	}

	input := judge.CaseInput{
		StoryA: strings.TrimSpace(a),
		StoryB: strings.TrimSpace(b),
		Tone:   judge.NormalizeTone(*tone),
	}

	timer := util.StartTimer()
	verdict := judge.NewOracle(llm).Evaluate(context.Background(), input)
	logrus.WithFields(logrus.Fields{
		"latency_ms": timer.ElapsedMs(),
		"llm":        llm != nil && llm.Enabled(),
	}).Info("verdict produced")

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(verdict); err != nil {
		logrus.Fatalf("encode verdict: %v", err)
	}
}

// resolveStory returns the flag value directly, or the file contents when
// the value starts with '@'.
func resolveStory(value string) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(value, "@"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
