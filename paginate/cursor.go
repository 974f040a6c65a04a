package paginate

import (
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Version is the cursor wire version this package mints and accepts.
const Version = 1

// Direction marks which way a cursor continues from its position.
type Direction string

const (
	// Forward continues after the position in sort order.
	Forward Direction = "fwd"
	// Backward continues before the position in sort order.
	Backward Direction = "bwd"
)

// Cursor is the decoded form of a pagination token. The wire form is
// msgpack wrapped in unpadded base64url, opaque to clients. It binds a
// row position (the ordering-field values of the boundary row) to the
// exact order and a fingerprint of the filter it was minted under, plus
// a mint timestamp for expiry.
type Cursor struct {
	Version  int       `msgpack:"v"`
	Keys     []string  `msgpack:"k"` // ordering-field values of the boundary row
	Order    []string  `msgpack:"o"` // signed order tokens
	Filter   string    `msgpack:"f"` // filter fingerprint
	Dir      Direction `msgpack:"d"`
	MintedAt int64     `msgpack:"t"` // unix seconds
}

// Encode serializes the cursor into its opaque wire form.
func (c *Cursor) Encode() (string, error) {
	raw, err := msgpack.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("paginate: encoding cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses an opaque token. Any token not produced by Encode fails
// with ErrInvalidCursor; decoding never panics.
func Decode(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := msgpack.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidCursor, c.Version)
	}
	if len(c.Keys) == 0 || len(c.Keys) != len(c.Order) {
		return nil, fmt.Errorf("%w: malformed position", ErrInvalidCursor)
	}
	if c.Dir != Forward && c.Dir != Backward {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidCursor, c.Dir)
	}
	if c.MintedAt <= 0 {
		return nil, fmt.Errorf("%w: missing mint time", ErrInvalidCursor)
	}
	return &c, nil
}
