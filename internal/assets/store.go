package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hardsub/internal/logging"
	"hardsub/internal/textutil"
)

// DirPrefix starts every session directory name under the scratch root.
const DirPrefix = "session_"

// OutputName is the file name the encoder writes inside a session directory.
const OutputName = "output.mp4"

// Set tracks the files a session has collected. Paths are empty until the
// corresponding file has been stored.
type Set struct {
	Dir       string
	VideoPath string
	// VideoName is the name the video was uploaded under.
	VideoName    string
	SubtitlePath string
	OutputPath   string
}

// Ready reports whether both inputs required to start a job are present.
func (s Set) Ready() bool {
	return s.VideoPath != "" && s.SubtitlePath != ""
}

// Store manages session directories under one scratch root.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore returns a store rooted at root.
func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{root: root, logger: logging.NewComponentLogger(logger, "assets")}
}

// Root returns the scratch root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory owned by sessionID without creating it.
func (s *Store) Dir(sessionID string) string {
	return filepath.Join(s.root, DirPrefix+textutil.SessionToken(sessionID))
}

// Prepare creates the session directory if needed and returns its path.
func (s *Store) Prepare(sessionID string) (string, error) {
	dir := s.Dir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	return dir, nil
}

// Role names which session input a stored file is.
type Role string

const (
	RoleVideo    Role = "video"
	RoleSubtitle Role = "subtitle"
)

// StoredName returns the file name an upload takes inside a session
// directory: the role plus the upload's lowercased extension. Distinct roles
// never share a name.
func StoredName(role Role, uploadName string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(strings.ReplaceAll(uploadName, "\\", "/"))))
	for _, r := range strings.TrimPrefix(ext, ".") {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			ext = ""
			break
		}
	}
	if ext == "." {
		ext = ""
	}
	return string(role) + ext
}

// Save writes src into dir under StoredName(role, uploadName) and returns the
// stored path. A partially written file is removed on failure.
func (s *Store) Save(dir string, role Role, uploadName string, src io.Reader) (string, error) {
	if role != RoleVideo && role != RoleSubtitle {
		return "", fmt.Errorf("unknown input role %q", role)
	}
	name := StoredName(role, uploadName)
	path := filepath.Join(dir, name)

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}

// Teardown removes dir and everything inside it. Missing directories are not
// an error; genuine removal failures are logged and swallowed.
func (s *Store) Teardown(dir string) {
	if strings.TrimSpace(dir) == "" {
		return
	}
	err := os.RemoveAll(dir)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("session directory removed", logging.String("dir", dir))
		return
	}
	logging.WarnWithContext(s.logger, "session directory cleanup failed", "asset_teardown_failed",
		logging.String("dir", dir),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check scratch_dir permissions"),
		logging.String(logging.FieldImpact, "scratch files remain until the next startup sweep"),
	)
}

// Sweep removes session directories left in the scratch root by an earlier
// process. Only entries carrying DirPrefix are touched. It returns the number
// of directories removed.
func (s *Store) Sweep() int {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("scratch sweep failed", logging.String("root", s.root), logging.Error(err))
		}
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), DirPrefix) {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		s.Teardown(dir)
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("stale session directories removed",
			logging.Int("count", removed),
			logging.String(logging.FieldEventType, "scratch_swept"),
		)
	}
	return removed
}
