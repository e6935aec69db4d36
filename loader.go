package xfib

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ngarch/xfib/internal/xid"
)

// LoadFIBText reads the optional FIB text format: one entry per line,
// three whitespace-separated tokens `<40-hex-digits-prefix>
// <decimal-length> <decimal-nexthop>`. Comments and blank lines are not
// supported, per spec. The prefix is canonicalized (bits at or beyond
// length are zeroed) before being returned, matching the in-memory
// contract's expectation that a loader hands off already-canonical
// entries.
func LoadFIBText(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) != 3 {
			return nil, fmt.Errorf("xfib: line %d: want 3 fields, got %d", line, len(fields))
		}

		prefix, err := xid.FromHex(fields[0])
		if err != nil {
			return nil, fmt.Errorf("xfib: line %d: %w", line, err)
		}
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("xfib: line %d: invalid length: %w", line, err)
		}
		nexthop, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("xfib: line %d: invalid nexthop: %w", line, err)
		}

		entries = append(entries, Entry{
			Prefix:  xid.Mask(prefix, length),
			Len:     length,
			Nexthop: uint32(nexthop),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("xfib: scanning FIB text: %w", err)
	}
	return entries, nil
}
