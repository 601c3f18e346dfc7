package crm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrNoData indicates no usable CRM data was found
var ErrNoData = errors.New("crm: no data found")

// Dataset holds the merged rows from every loaded export
type Dataset struct {
	Accounts      []Record
	Contacts      []Record
	Opportunities []Record
}

// Merge combines parsed files into one dataset. Unknown file types are skipped.
func Merge(files []*File) *Dataset {
	ds := &Dataset{}
	for _, f := range files {
		switch f.Type {
		case FileAccount:
			ds.Accounts = append(ds.Accounts, f.Records...)
		case FileContact:
			ds.Contacts = append(ds.Contacts, f.Records...)
		case FileOpportunity:
			ds.Opportunities = append(ds.Opportunities, f.Records...)
		}
	}
	return ds
}

// Empty reports whether the dataset has no rows at all
func (d *Dataset) Empty() bool {
	return len(d.Accounts) == 0 && len(d.Contacts) == 0 && len(d.Opportunities) == 0
}

// Loader reads every CSV from a directory and produces the customer
// data summary used for persona generation.
type Loader struct {
	dir    string
	logger *zap.Logger
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{dir: dir, logger: logger}
}

// LoadAll parses every .csv file under the loader's directory.
// Unreadable files are logged and skipped.
func (l *Loader) LoadAll() ([]*File, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []*File
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		fh, err := os.Open(path)
		if err != nil {
			l.logger.Warn("skipping unreadable CRM file", zap.String("file", path), zap.Error(err))
			continue
		}

		parsed, perr := ParseCSV(entry.Name(), fh)
		_ = fh.Close()
		if perr != nil {
			l.logger.Warn("skipping unparseable CRM file", zap.String("file", path), zap.Error(perr))
			continue
		}

		l.logger.Info("loaded CRM file",
			zap.String("file", entry.Name()),
			zap.String("type", string(parsed.Type)),
			zap.Int("rows", len(parsed.Records)))
		files = append(files, parsed)
	}

	return files, nil
}

// Summary loads every export and returns the merged text summary.
// Returns ErrNoData when the directory has no usable rows.
func (l *Loader) Summary() (string, error) {
	files, err := l.LoadAll()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoData
	}

	ds := Merge(files)
	if ds.Empty() {
		return "", ErrNoData
	}

	return ds.Statistics().Text(), nil
}
