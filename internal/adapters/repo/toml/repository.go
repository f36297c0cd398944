package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	historyFileMode = 0o600
	historyDirMode  = 0o700
	tempFilePattern = ".history-*.toml.tmp"
)

// Repository keeps transcripts in a single TOML file. Limit caps the number
// of stored transcripts; zero keeps everything.
type Repository struct {
	historyPath string
	limit       int
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.TranscriptRepository = (*Repository)(nil)

func NewRepository(path string, limit int) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is empty")
	}
	if limit < 0 {
		return nil, fmt.Errorf("history limit must not be negative, got %d", limit)
	}

	historyPath, err := normalizeHistoryPath(path)
	if err != nil {
		return nil, err
	}

	return &Repository{historyPath: historyPath, limit: limit, mu: lockForPath(historyPath)}, nil
}

func (r *Repository) Path() string {
	return r.historyPath
}

func (r *Repository) Save(ctx context.Context, transcript domain.Transcript) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(transcript)
	updated := false
	for i := range file.Transcripts {
		if file.Transcripts[i].ID == encoded.ID {
			file.Transcripts[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Transcripts = append(file.Transcripts, encoded)
	}

	if r.limit > 0 && len(file.Transcripts) > r.limit {
		file.Transcripts = file.Transcripts[len(file.Transcripts)-r.limit:]
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) GetByID(ctx context.Context, id domain.TranscriptID) (domain.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transcript{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Transcript{}, err
	}

	for _, entry := range file.Transcripts {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.Transcript{}, fmt.Errorf("%w: %s", domain.ErrTranscriptNotFound, id)
}

func (r *Repository) List(ctx context.Context) ([]domain.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	transcripts := make([]domain.Transcript, 0, len(file.Transcripts))
	for i := len(file.Transcripts) - 1; i >= 0; i-- {
		transcripts = append(transcripts, fromSchema(file.Transcripts[i]))
	}

	return transcripts, nil
}

func (r *Repository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.historyPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return r.writeSchema(fileSchema{})
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.historyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read history file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode history file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeHistoryPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve history path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// writeSchema replaces the history file through a temp file and rename so a
// crash never leaves a half-written history behind.
func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.historyPath), historyDirMode); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode history file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.historyPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}

	if err := tempFile.Chmod(historyFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp history file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}

	if err := os.Rename(tempName, r.historyPath); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(transcript domain.Transcript) transcriptSchema {
	return transcriptSchema{
		ID:        string(transcript.ID),
		Question:  transcript.Question,
		Mode:      string(transcript.Mode),
		Answer:    transcript.Answer,
		Sources:   transcript.Sources,
		FollowUps: transcript.FollowUps,
		Outcome:   string(transcript.Outcome),
		AskedAt:   formatTime(transcript.AskedAt),
	}
}

func fromSchema(entry transcriptSchema) domain.Transcript {
	return domain.Transcript{
		ID:        domain.TranscriptID(entry.ID),
		Question:  entry.Question,
		Mode:      domain.Mode(entry.Mode),
		Answer:    entry.Answer,
		Sources:   entry.Sources,
		FollowUps: entry.FollowUps,
		Outcome:   domain.Outcome(entry.Outcome),
		AskedAt:   parseTime(entry.AskedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
