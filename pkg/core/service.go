package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config wires the collaborators of a Service.
type Config struct {
	Reader      Reader
	Parser      Parser
	Resolver    *Resolver
	Transformer Transformer
	Archive     Archive
	// OutputBase is the archive root.
	OutputBase string
	// VaultRoot anchors the open links logged for filed notes.
	// Defaults to the parent of OutputBase.
	VaultRoot string
	Logger    *slog.Logger
	Recorder  Recorder
}

// Service runs the ingestion pipeline for individual files.
type Service struct {
	reader      Reader
	parser      Parser
	resolver    *Resolver
	transformer Transformer
	archive     Archive
	outputBase  string
	vaultRoot   string
	logger      *slog.Logger
	recorder    Recorder

	mu       sync.RWMutex
	counts   map[Outcome]int
	inFlight int
	lastSeq  int64
}

// NewService creates a new Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Reader == nil || cfg.Parser == nil || cfg.Transformer == nil || cfg.Archive == nil {
		return nil, errors.New("reader, parser, transformer and archive are required")
	}
	if cfg.OutputBase == "" {
		return nil, errors.New("output base cannot be empty")
	}
	if cfg.Resolver == nil {
		cfg.Resolver = NewResolver(PolicyLenient)
	}
	if cfg.VaultRoot == "" {
		cfg.VaultRoot = filepath.Dir(cfg.OutputBase)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}

	return &Service{
		reader:      cfg.Reader,
		parser:      cfg.Parser,
		resolver:    cfg.Resolver,
		transformer: cfg.Transformer,
		archive:     cfg.Archive,
		outputBase:  cfg.OutputBase,
		vaultRoot:   cfg.VaultRoot,
		logger:      cfg.Logger,
		recorder:    cfg.Recorder,
		counts:      make(map[Outcome]int),
	}, nil
}

// Process runs the pipeline for the file at path.
// seq is a caller-assigned sequence number used to correlate log lines.
//
// Skipped files yield a nil error and a Result carrying the reason.
// Any returned error leaves the source file in place.
func (s *Service) Process(ctx context.Context, seq int64, path string) (Result, error) {
	s.begin(seq)
	log := s.logger.With("seq", seq, "file", filepath.Base(path))
	log.Info("processing started")

	res, err := s.process(ctx, log, seq, path)
	if err != nil {
		res.Outcome = OutcomeFailed
		log.Error("processing failed", "error", err)
	}
	s.finish(res.Outcome)
	return res, err
}

func (s *Service) process(ctx context.Context, log *slog.Logger, seq int64, path string) (Result, error) {
	res := Result{Seq: seq, Source: path}

	content, err := s.timed("read", func() (string, error) { return s.reader.Read(ctx, path) })
	if err != nil {
		return res, err
	}

	note, err := s.parser.Parse(path, content)
	if err != nil {
		return res, err
	}

	if !note.Metadata.Present(KeySource) || !note.Metadata.Present(KeyPublished) {
		log.Info("required metadata missing, leaving file in place",
			"need", []string{KeySource, KeyPublished})
		return s.skip(res, ErrMissingMetadata), nil
	}

	dest, err := s.resolver.Resolve(note.Metadata)
	if err != nil {
		log.Warn("destination could not be resolved, leaving file in place", "error", err)
		return s.skip(res, err), nil
	}

	body, err := s.timed("transform", func() (string, error) { return s.transformer.Transform(ctx, note.Body) })
	if err != nil {
		return res, err
	}

	out, err := s.timed("store", func() (string, error) { return s.archive.Store(ctx, note, dest, body) })
	if err != nil {
		return res, err
	}

	res.Output = out
	res.Outcome = OutcomeRelocated
	log.Info("processing finished", "dest", out, "link", OpenLink(s.vaultRoot, out))
	return res, nil
}

func (s *Service) skip(res Result, reason error) Result {
	res.Outcome = OutcomeSkipped
	res.Reason = reason
	return res
}

func (s *Service) timed(stage string, fn func() (string, error)) (string, error) {
	start := time.Now()
	out, err := fn()
	s.recorder.ObserveStage(stage, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("%s: %w", stage, err)
	}
	return out, nil
}

func (s *Service) begin(seq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	if seq > s.lastSeq {
		s.lastSeq = seq
	}
}

func (s *Service) finish(outcome Outcome) {
	s.mu.Lock()
	s.inFlight--
	s.counts[outcome]++
	s.mu.Unlock()
	s.recorder.IncOutcome(outcome)
}

// OpenLink builds an obsidian://open link for file relative to vaultRoot.
// It returns an empty string if file is not below vaultRoot.
func OpenLink(vaultRoot, file string) string {
	rel, err := filepath.Rel(vaultRoot, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "obsidian://open?file=" + strings.Join(segments, "/")
}
