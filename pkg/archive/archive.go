// Package archive records generated drawings so earlier runs can be listed and
// looked up again.
//
// Three stores are provided: [FileStore] for the CLI, [MemoryStore] for tests
// and short-lived servers, and [MongoStore] for a shared history behind the
// HTTP API. [Open] picks one from a URI.
package archive

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Record describes one generation run.
type Record struct {
	ID         string    `bson:"_id" json:"id"`
	DocumentID string    `bson:"document_id" json:"document_id"`
	Name       string    `bson:"name" json:"name"`
	Source     string    `bson:"source" json:"source"`
	Patterns   []string  `bson:"patterns" json:"patterns"`
	Holes      int       `bson:"holes" json:"holes"`
	Formats    []string  `bson:"formats" json:"formats"`
	Outputs    []string  `bson:"outputs,omitempty" json:"outputs,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// NewRecord summarises a document. Each call gets a fresh random ID; the
// DocumentID is the document's content ID, so repeated runs of the same
// drawing share it.
func NewRecord(doc *drawing.Document, source string, formats, outputs []string) Record {
	patterns := doc.Patterns()
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	return Record{
		ID:         uuid.New().String(),
		DocumentID: doc.ID(),
		Name:       doc.Name(),
		Source:     source,
		Patterns:   names,
		Holes:      doc.Count(drawing.LayerHoles),
		Formats:    append([]string(nil), formats...),
		Outputs:    append([]string(nil), outputs...),
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Store persists run records.
// Implementations must be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// Get returns NOT_FOUND when no record has the ID.
	Get(ctx context.Context, id string) (Record, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]Record, error)
	Close(ctx context.Context) error
}

// Open returns a store for the given URI:
//
//   - "" or "memory": a MemoryStore
//   - "mongodb://..." or "mongodb+srv://...": a MongoStore
//   - "file://DIR" or a plain directory path: a FileStore
func Open(ctx context.Context, uri string) (Store, error) {
	switch {
	case uri == "" || uri == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		s, err := NewMongoStore(ctx, uri)
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.Contains(uri, "://") && !strings.HasPrefix(uri, "file://"):
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported archive URI %q", uri)
	}
	s, err := NewFileStore(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func validateRecord(rec Record) error {
	if rec.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record has no ID")
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
