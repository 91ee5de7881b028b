package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey identifies one rendered output of a document.
	ArtifactKey(documentHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds every render option that changes the output bytes.
// Options a format ignores should be left zero so equal outputs share a key.
type ArtifactKeyOpts struct {
	Format  string
	Title   string
	Scale   float64
	Summary bool
}

// canonical joins the options in a fixed field order.
func (o ArtifactKeyOpts) canonical() string {
	return strings.Join([]string{
		o.Format,
		strconv.Quote(o.Title),
		strconv.FormatFloat(o.Scale, 'g', -1, 64),
		strconv.FormatBool(o.Summary),
	}, "\x1f")
}

// DefaultKeyer produces keys of the form "artifact:<format>:<sha256>", so a
// backend can be scanned per format.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(documentHash string, opts ArtifactKeyOpts) string {
	format := opts.Format
	if format == "" {
		format = "raw"
	}
	return "artifact:" + format + ":" + Hash([]byte(documentHash+"\x1e"+opts.canonical()))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
