package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/github-checks/internal/checks"
)

// SessionVersion is the only session record layout this build understands.
const SessionVersion = 1

var (
	// ErrSessionExists is returned when saving over an existing session without overwrite.
	ErrSessionExists = errors.New("a checks session already exists")
	// ErrNoSession is returned when no session file is present.
	ErrNoSession = errors.New("no checks session found, run init first")
	// ErrNoRunningCheck is returned when an operation needs a started check run.
	ErrNoRunningCheck = errors.New("no check run in progress, run start-check-run first")
	// ErrRunInProgress is returned when starting a run while another is active.
	ErrRunInProgress = errors.New("a check run is already in progress")
	// ErrSessionVersion is returned for session files written by an incompatible version.
	ErrSessionVersion = errors.New("unsupported checks session version")
)

// Session is the state carried between CLI invocations: the repository, the
// installation token and, once started, the check run being reported.
// The file holds a credential and is written with mode 0600.
type Session struct {
	Version    int    `json:"version" validate:"required"`
	RepoURL    string `json:"repo_url" validate:"required,url"`
	APIBaseURL string `json:"api_base_url" validate:"required,url"`
	Owner      string `json:"owner" validate:"required"`
	Repo       string `json:"repo" validate:"required"`
	Token      string `json:"token" validate:"required"`

	CheckName  string    `json:"check_name,omitempty" validate:"required_with=RunID"`
	HeadSHA    string    `json:"head_sha,omitempty" validate:"required_with=RunID"`
	RunID      int64     `json:"run_id,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`

	// Set by intermediate annotation uploads and reused on finish.
	Conclusion  checks.Conclusion `json:"conclusion,omitempty"`
	Title       string            `json:"title,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Annotations int               `json:"annotations,omitempty"`
}

// NewSession creates an unstarted session for repoURL.
func NewSession(repoURL, token string) (*Session, error) {
	ref, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Version:    SessionVersion,
		RepoURL:    repoURL,
		APIBaseURL: ref.APIBaseURL,
		Owner:      ref.Owner,
		Repo:       ref.Repo,
		Token:      token,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the record is complete enough to talk to the API.
func (s *Session) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid checks session: %w", err)
	}
	return nil
}

// Running reports whether a check run has been started.
func (s *Session) Running() bool {
	return s.RunID != 0
}

// begin records a freshly created check run.
func (s *Session) begin(runID int64, name, sha string, started time.Time) {
	s.RunID = runID
	s.CheckName = name
	s.HeadSHA = sha
	s.StartedAt = started
	s.Conclusion = ""
	s.Title = ""
	s.Summary = ""
	s.Annotations = 0
}

func newExternalID() string {
	return uuid.NewString()
}

// Save writes the session to path. Without overwrite an existing file is an
// ErrSessionExists error.
func (s *Session) Save(path string, overwrite bool) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	if overwrite {
		return writeAtomic(path, data)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrSessionExists, path)
	}
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	return f.Close()
}

// LoadSession reads and validates a session file.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", path, err)
	}
	if header.Version != SessionVersion {
		return nil, fmt.Errorf("%w %d in %s (want %d)", ErrSessionVersion, header.Version, path, SessionVersion)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// RemoveSession deletes the session file. A missing file is not an error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// DefaultSessionPath is where the session lives when none is configured.
func DefaultSessionPath() string {
	return filepath.Join(os.TempDir(), "github-checks-session.json")
}
