package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"

	"hardsub/internal/config"
	"hardsub/internal/deps"
	"hardsub/internal/fonts"
	"hardsub/internal/settings"
)

const gib = 1 << 30

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

// CheckFreeSpace verifies that the filesystem holding path has at least
// minGiB free. A zero threshold only reports the free space.
func CheckFreeSpace(ctx context.Context, name, path string, minGiB float64) Result {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	free := humanize.IBytes(usage.Free)
	if minGiB > 0 && float64(usage.Free) < minGiB*gib {
		need := humanize.IBytes(uint64(minGiB * gib))
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need at least %s", free, need)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free (%.0f%% used)", free, usage.UsedPercent)}
}

// CheckFonts verifies every font offered in the option menu resolves to a
// file. A registered font that is not offered only produces a warning.
func CheckFonts(registry *fonts.Registry) []Result {
	offered := make(map[string]bool)
	if options, err := settings.Options(settings.KeyFontName); err == nil {
		for _, opt := range options {
			offered[opt.Value] = true
		}
	}

	var results []Result
	for name := range offered {
		if _, ok := registry.Lookup(name); !ok {
			results = append(results, Result{Name: "Font " + name, Detail: "offered in the menu but not registered in [fonts]"})
		}
	}
	for _, entry := range registry.Entries() {
		result := Result{Name: "Font " + entry.Name}
		if _, err := registry.Resolve(entry.Name); err != nil {
			result.Detail = fmt.Sprintf("%s (error: not found)", entry.Path)
			if !offered[entry.Name] {
				result.Passed = true
				result.Warning = true
			}
		} else {
			result.Passed = true
			result.Detail = entry.Path
			if !offered[entry.Name] {
				result.Warning = true
				result.Detail += " (not offered in the menu)"
			}
		}
		results = append(results, result)
	}
	return results
}

// CheckToolchain reports ffmpeg and ffprobe availability. A missing ffprobe
// passes with a warning because jobs still run without progress.
func CheckToolchain(ctx context.Context, cfg *config.Config) []Result {
	tools := deps.Inspect(ctx, cfg.FFmpeg.FFmpegBinary, cfg.FFmpeg.FFprobeBinary).Tools()
	results := make([]Result, 0, len(tools))
	for _, tool := range tools {
		result := Result{Name: tool.Name, Passed: tool.Available}
		switch {
		case tool.Available:
			result.Detail = tool.Path
			if tool.Version != "" {
				result.Detail = fmt.Sprintf("%s (version %s)", tool.Path, tool.Version)
			}
		case tool.Optional:
			result.Passed = true
			result.Warning = true
			result.Detail = tool.Problem + "; progress will be reported without percentages"
		default:
			result.Detail = tool.Problem
		}
		results = append(results, result)
	}
	return results
}

// CheckTelegram verifies the bot token against the getMe method.
func CheckTelegram(ctx context.Context, endpoint, token string) Result {
	const name = "Telegram"

	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Name: name, Detail: "missing token"}
	}
	if strings.Count(endpoint, "%s") != 2 {
		return Result{Name: name, Detail: "invalid api endpoint"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, fmt.Sprintf(endpoint, token, "getMe"), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err, token)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusNotFound:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}

	var payload struct {
		OK     bool `json:"ok"`
		Result struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || !payload.OK {
		return Result{Name: name, Detail: "auth check failed (unexpected response)"}
	}
	return Result{Name: name, Passed: true, Detail: "authorized as @" + payload.Result.Username}
}

func summarizeNetError(err error, token string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "auth check timed out (Bot API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "auth check timed out (Bot API unreachable)"
	}
	return strings.ReplaceAll(err.Error(), token, "<token>")
}
