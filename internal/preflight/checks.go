package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"playlet/internal/config"
	"playlet/internal/services/llm"
	"playlet/internal/services/tts"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBinary verifies that an external command resolves on PATH.
func CheckBinary(name, command, purpose string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "command not configured; " + purpose}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found; %s", command, purpose)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckModelFile verifies that the recognition model file exists.
func CheckModelFile(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "model path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckLLM verifies the script generation API is reachable and the key is
// valid. It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, cfg *config.Config) Result {
	const name = "Script LLM"
	if cfg.LLM.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Referer: cfg.LLM.Referer,
		Title:   cfg.LLM.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckTTS verifies the synthesis server answers on its base URL.
func CheckTTS(ctx context.Context, cfg *config.Config) Result {
	const name = "Synthesis server"
	if strings.TrimSpace(cfg.TTS.BaseURL) == "" {
		return Result{Name: name, Detail: "base URL missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := tts.NewClient(tts.Config{BaseURL: cfg.TTS.BaseURL}, tts.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	return Result{Name: name, Passed: true, Detail: cfg.TTS.BaseURL}
}

func summarizeNetworkError(err error) string {
	if err == nil {
		return ""
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return "request timed out"
		}
		return fmt.Sprintf("unreachable (%v)", urlErr.Err)
	}
	return err.Error()
}
