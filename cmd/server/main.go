package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"friendship-court/backend/internal/api"
	"friendship-court/backend/internal/judge"
)

func main() {
	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	aiCfg := judge.Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	}
	if temp := os.Getenv("OPENAI_TEMPERATURE"); temp != "" {
		if v, err := strconv.ParseFloat(temp, 64); err == nil {
			aiCfg.Temperature = v
		}
	}
	if maxTokens := os.Getenv("OPENAI_MAX_TOKENS"); maxTokens != "" {
		if v, err := strconv.Atoi(maxTokens); err == nil {
			aiCfg.MaxTokens = v
		}
	}
	if timeout := os.Getenv("OPENAI_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			aiCfg.Timeout = d
		}
	}

	disableAI := strings.EqualFold(strings.TrimSpace(os.Getenv("DISABLE_AI")), "true")

	thinking := 10 * time.Second
	if v := strings.TrimSpace(os.Getenv("THINKING_SECONDS")); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			thinking = time.Duration(val) * time.Second
		}
	}

	sessionTTL := 24 * time.Hour
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			sessionTTL = d
		}
	}

	redisDB := 0
	if v := strings.TrimSpace(os.Getenv("SESSION_REDIS_DB")); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			redisDB = val
		}
	}

	cfg := api.Config{
		DBPath:        filepath.Join(dataDir, "friendship-court.db"),
		RedisAddr:     strings.TrimSpace(os.Getenv("SESSION_REDIS_ADDR")),
		RedisPassword: os.Getenv("SESSION_REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisPrefix:   strings.TrimSpace(os.Getenv("SESSION_REDIS_PREFIX")),
		SessionTTL:    sessionTTL,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
		AIConfig:  aiCfg,
		DisableAI: disableAI,
		Thinking:  thinking,
	}

	if override := strings.TrimSpace(os.Getenv("FRIENDSHIP_COURT_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		cfg.AllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer func() {
		if cerr := server.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("close session store")
		}
	}()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("starting friendship-court backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
