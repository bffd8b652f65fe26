package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/dialect/internal/config"
	"github.com/JonMunkholm/dialect/internal/csv"
	"github.com/JonMunkholm/dialect/internal/logging"
	"github.com/JonMunkholm/dialect/internal/value"
	"github.com/JonMunkholm/dialect/internal/xml"
)

// ErrStoreUnavailable is returned by table operations when no database is configured.
var ErrStoreUnavailable = errors.New("store unavailable: no database configured")

// Store persists typed rows. Satisfied by *store.Store.
type Store interface {
	Load(ctx context.Context, table string, columns []string, rows []value.Row) (int64, error)
	Export(ctx context.Context, table string, limit int) ([]string, []value.Row, error)
}

// Result describes a finished job. For XML jobs Rows counts the child
// elements of the root.
type Result struct {
	JobID    string        `json:"job_id"`
	Rows     int           `json:"rows"`
	Columns  []string      `json:"columns,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Service runs conversions as bounded jobs.
type Service struct {
	store         Store
	limiter       *Limiter
	timeout       time.Duration
	maxExportRows int
}

// NewService creates a Service. A nil store disables LoadCSV and ExportCSV.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{
		store:         store,
		limiter:       NewLimiter(cfg.Limits.MaxConcurrent, cfg.Limits.MaxWaitTime),
		timeout:       cfg.Limits.JobTimeout,
		maxExportRows: cfg.Limits.MaxExportRows,
	}
}

// Limiter exposes the job limiter for status reporting and shutdown.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// StoreEnabled reports whether table operations are available.
func (s *Service) StoreEnabled() bool {
	return s.store != nil
}

// ParseCSV decodes data and parses it into typed rows. Result.Columns lists
// the columns in file order.
func (s *Service) ParseCSV(ctx context.Context, data []byte, cfg csv.ParseConfig) ([]value.Row, Result, error) {
	var rows []value.Row
	res, err := s.run(ctx, "csv.parse", func(ctx context.Context, res *Result) error {
		header, parsed, err := parseCSV(data, cfg)
		if err != nil {
			return err
		}
		rows = parsed
		res.Rows, res.Columns = len(parsed), header
		return ctx.Err()
	})
	return rows, res, err
}

// SerializeCSV writes rows as CSV text.
func (s *Service) SerializeCSV(ctx context.Context, rows []value.Row, cfg csv.SerializeConfig) ([]byte, Result, error) {
	var out []byte
	res, err := s.run(ctx, "csv.serialize", func(ctx context.Context, res *Result) error {
		b, err := csv.Serialize(rows, cfg)
		if err != nil {
			return err
		}
		out = b
		res.Rows, res.Columns = len(rows), value.Columns(rows)
		return ctx.Err()
	})
	return out, res, err
}

// ParseXML decodes data and parses it into an element tree.
func (s *Service) ParseXML(ctx context.Context, data []byte, cfg xml.ParseConfig) (*xml.Element, Result, error) {
	var root *xml.Element
	res, err := s.run(ctx, "xml.parse", func(ctx context.Context, res *Result) error {
		text, err := Decode(data)
		if err != nil {
			return err
		}
		root, err = xml.Parse(text, cfg)
		if err != nil {
			return err
		}
		res.Rows = len(root.Elements())
		return ctx.Err()
	})
	return root, res, err
}

// SerializeXML writes the tree rooted at root as XML text.
func (s *Service) SerializeXML(ctx context.Context, root *xml.Element, cfg xml.SerializeConfig) ([]byte, Result, error) {
	var out []byte
	res, err := s.run(ctx, "xml.serialize", func(ctx context.Context, res *Result) error {
		b, err := xml.Serialize(root, cfg)
		if err != nil {
			return err
		}
		out = b
		res.Rows = len(root.Elements())
		return ctx.Err()
	})
	return out, res, err
}

// LoadCSV parses data and copies the rows into table. The CSV columns must
// name columns of the table.
func (s *Service) LoadCSV(ctx context.Context, table string, data []byte, cfg csv.ParseConfig) (Result, error) {
	if s.store == nil {
		return Result{}, ErrStoreUnavailable
	}
	return s.run(ctx, "table.load", func(ctx context.Context, res *Result) error {
		header, rows, err := parseCSV(data, cfg)
		if err != nil {
			return err
		}
		res.Columns = header
		if len(rows) == 0 {
			return nil
		}
		n, err := s.store.Load(ctx, table, header, rows)
		if err != nil {
			return fmt.Errorf("load %s: %w", table, err)
		}
		res.Rows = int(n)
		return nil
	})
}

// ExportCSV reads up to limit rows of table and writes them as CSV. A limit
// of zero or above the configured maximum is clamped to the maximum.
func (s *Service) ExportCSV(ctx context.Context, table string, limit int, cfg csv.SerializeConfig) ([]byte, Result, error) {
	if s.store == nil {
		return nil, Result{}, ErrStoreUnavailable
	}
	if err := cfg.Validate(); err != nil {
		return nil, Result{}, err
	}
	if limit <= 0 || limit > s.maxExportRows {
		limit = s.maxExportRows
	}

	var out []byte
	res, err := s.run(ctx, "table.export", func(ctx context.Context, res *Result) error {
		columns, rows, err := s.store.Export(ctx, table, limit)
		if err != nil {
			return fmt.Errorf("export %s: %w", table, err)
		}
		b, err := csv.Serialize(rows, cfg)
		if err != nil {
			return err
		}
		out = b
		res.Rows, res.Columns = len(rows), columns
		return nil
	})
	return out, res, err
}

func parseCSV(data []byte, cfg csv.ParseConfig) ([]string, []value.Row, error) {
	text, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return csv.ParseWithHeader(text, cfg)
}

// run executes fn as a job: it assigns a job id, waits for a limiter slot,
// applies the job timeout and logs the outcome.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context, *Result) error) (Result, error) {
	res := Result{JobID: uuid.NewString()}
	ctx = contextWithJobID(ctx, res.JobID)
	logger := logging.WithFields(ctx,
		"job_id", res.JobID,
		"op", op,
		"client_ip", GetIPAddressFromContext(ctx),
	)

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("job rejected", "error", err, "active", s.limiter.ActiveCount())
		return res, err
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Debug("job started", "user_agent", GetUserAgentFromContext(ctx))
	start := time.Now()
	err := fn(ctx, &res)
	res.Duration = time.Since(start)

	if err != nil {
		logger.Warn("job failed", "error", err, "duration", res.Duration)
		return res, err
	}
	logger.Info("job finished", "rows", res.Rows, "duration", res.Duration)
	return res, nil
}
