package mirror

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vigenere-go/internal/encryption"
	apperrors "github.com/vigenere-go/internal/errors"
	"github.com/vigenere-go/internal/trace"
)

const (
	// EncryptedSuffix is appended to the source leaf name by EncryptDir
	EncryptedSuffix = ".encrypted"
	// DecryptedSuffix is appended to the source leaf name by DecryptDir
	DecryptedSuffix = ".decrypted"

	dirPerm = 0755
)

// Result is the outcome of mirroring one entry
type Result struct {
	Path string `json:"path"`
	Dest string `json:"dest"`
	Kind Kind   `json:"kind"`
	Err  error  `json:"-"`
}

// Failed reports whether the entry could not be mirrored
func (r Result) Failed() bool {
	return r.Err != nil
}

// Report summarises one directory mirror run
type Report struct {
	RunID    string
	Action   string
	Source   string
	Dest     string
	KeyFP    string
	Dirs     int
	Files    int
	Skipped  int
	Results  []Result
	Started  time.Time
	Finished time.Time
}

// Failures returns the results that carry an error
func (r *Report) Failures() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Mirror applies a cipher across a directory tree into a sibling tree
type Mirror struct {
	cipher    *encryption.Vigenere
	workers   int
	chunkSize int
	logger    zerolog.Logger
}

// Option configures a Mirror
type Option func(*Mirror)

// WithWorkers sets how many files are transformed at once
func WithWorkers(n int) Option {
	return func(m *Mirror) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithChunkSize sets the per-file read size
func WithChunkSize(n int) Option {
	return func(m *Mirror) {
		m.chunkSize = n
	}
}

// WithLogger sets the logger used for progress and per-file failures
func WithLogger(l zerolog.Logger) Option {
	return func(m *Mirror) {
		m.logger = l
	}
}

// New creates a Mirror around cipher
func New(cipher *encryption.Vigenere, opts ...Option) *Mirror {
	m := &Mirror{
		cipher:    cipher,
		workers:   1,
		chunkSize: encryption.DefaultChunkSize,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DestinationRoot returns the sibling directory a run over src writes to.
// Decryption drops the first ".encrypted" from the leaf name, if present.
func DestinationRoot(src string, mode encryption.Mode) (string, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}
	leaf := filepath.Base(abs)
	if mode == encryption.ModeDecrypt {
		leaf = strings.Replace(leaf, EncryptedSuffix, "", 1) + DecryptedSuffix
	} else {
		leaf += EncryptedSuffix
	}
	return filepath.Join(filepath.Dir(abs), leaf), nil
}

// EncryptDir mirrors src into <src>.encrypted, encrypting every file
func (m *Mirror) EncryptDir(ctx context.Context, src string, maxDepth int) (*Report, error) {
	return m.run(ctx, src, maxDepth, encryption.ModeEncrypt)
}

// DecryptDir mirrors src into its ".decrypted" sibling, decrypting every file
func (m *Mirror) DecryptDir(ctx context.Context, src string, maxDepth int) (*Report, error) {
	return m.run(ctx, src, maxDepth, encryption.ModeDecrypt)
}

// run enumerates src, creates every directory, then transforms files on a
// bounded pool. Per-entry failures are logged and recorded in the report;
// only an unusable root or a cancelled context produce an error.
func (m *Mirror) run(ctx context.Context, src string, maxDepth int, mode encryption.Mode) (*Report, error) {
	if m.cipher == nil {
		return nil, apperrors.NewConfiguration("mirror has no cipher")
	}

	entries, err := Enumerate(src, maxDepth)
	if err != nil {
		return nil, err
	}

	// Enumerate validated src, so Abs cannot fail here
	srcRoot, _ := filepath.Abs(src)
	destRoot, _ := DestinationRoot(srcRoot, mode)

	report := &Report{
		RunID:   trace.GetRunID(ctx),
		Action:  mode.String() + "Dir",
		Source:  srcRoot,
		Dest:    destRoot,
		KeyFP:   m.cipher.Fingerprint(),
		Results: make([]Result, len(entries)),
		Started: time.Now(),
	}
	logger := m.logger.With().
		Str("run_id", report.RunID).
		Str("action", report.Action).
		Str("key_fp", report.KeyFP).
		Logger()

	logger.Info().
		Str("source", srcRoot).
		Str("dest", destRoot).
		Int("entries", len(entries)).
		Int("workers", m.workers).
		Msg("Mirror started")

	var files []int
	for i, entry := range entries {
		res := Result{
			Path: entry.Path,
			Dest: filepath.Join(destRoot, entry.Rel),
			Kind: entry.Kind,
			Err:  entry.Err,
		}

		switch entry.Kind {
		case KindDir:
			if err := os.MkdirAll(res.Dest, dirPerm); err != nil {
				res.Err = apperrors.NewIO("failed to create directory", res.Dest, err)
			} else {
				report.Dirs++
			}
		case KindFile:
			files = append(files, i)
		case KindOther:
			report.Skipped++
			logger.Debug().Str("path", entry.Path).Msg("Skipping non-regular file")
		}

		report.Results[i] = res
		if res.Err != nil {
			logFailure(logger, res)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(m.workers)
	for _, i := range files {
		if err := ctx.Err(); err != nil {
			report.Results[i].Err = err
			continue
		}
		i := i
		g.Go(func() error {
			res := &report.Results[i]
			if err := ctx.Err(); err != nil {
				res.Err = err
				return nil
			}
			res.Err = m.transformFile(res.Path, res.Dest, mode)
			if res.Err != nil {
				logFailure(logger, *res)
				return nil
			}
			logger.Debug().Str("path", res.Path).Str("dest", res.Dest).Msg("File mirrored")
			return nil
		})
	}
	_ = g.Wait()

	for _, i := range files {
		if report.Results[i].Err == nil {
			report.Files++
		}
	}
	report.Finished = time.Now()

	failures := len(report.Failures())
	ev := logger.Info()
	if failures > 0 {
		ev = logger.Warn()
	}
	ev.Int("dirs", report.Dirs).
		Int("files", report.Files).
		Int("skipped", report.Skipped).
		Int("failures", failures).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("Mirror finished")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (m *Mirror) transformFile(src, dest string, mode encryption.Mode) error {
	// the parent normally exists already; this covers a failed or raced mkdir
	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return apperrors.NewIO("failed to create directory", filepath.Dir(dest), err)
	}
	return m.cipher.TransformFile(mode, src, dest, encryption.WithChunkSize(m.chunkSize))
}

func logFailure(logger zerolog.Logger, res Result) {
	logger.Error().
		Err(res.Err).
		Str("path", res.Path).
		Str("dest", res.Dest).
		Str("kind", res.Kind.String()).
		Msg("Failed to mirror entry")
}
