package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

func probeVersion(ctx context.Context, binary string) string {
	out, err := run(ctx, binary, "-hide_banner", "-version")
	if err != nil {
		return ""
	}
	return parseVersion(out)
}

// parseVersion extracts "6.1.1" from "ffmpeg version 6.1.1-3ubuntu5 Copyright ...".
func parseVersion(output []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	if !scanner.Scan() {
		return ""
	}
	fields := strings.Fields(scanner.Text())
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "version" {
			version := fields[i+1]
			if cut := strings.IndexAny(version, "-+~"); cut > 0 {
				version = version[:cut]
			}
			return version
		}
	}
	return ""
}

func hasSubtitlesFilter(ctx context.Context, binary string) bool {
	out, err := run(ctx, binary, "-hide_banner", "-filters")
	if err != nil {
		return false
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == "subtitles" {
			return true
		}
	}
	return false
}

func run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	return exec.CommandContext(ctx, binary, args...).Output()
}
