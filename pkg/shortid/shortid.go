// Package shortid generates the short client-side ids stored in data-id
// attributes of OneNote nodes.
package shortid

import (
	"encoding/binary"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Length is the number of base36 characters in an id.
const Length = 9

// Generator produces a new id on each call.
type Generator func() string

// New returns a random lowercase base36 id of Length characters.
func New() string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8]) ^ binary.BigEndian.Uint64(u[8:])

	s := strconv.FormatUint(n, 36)
	if len(s) < Length {
		s = strings.Repeat("0", Length-len(s)) + s
	}
	return s[len(s)-Length:]
}

// Sequence returns a deterministic Generator yielding prefix1, prefix2, ...
// It is safe for concurrent use.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return func() string {
		return prefix + strconv.FormatInt(n.Add(1), 10)
	}
}
