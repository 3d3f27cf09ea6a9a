package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	formatVersionCurrent = 1

	flagAdmin byte = 1 << 0
)

// ErrInvalidEncoding is returned by Decode for unknown versions and malformed
// blobs.
var ErrInvalidEncoding = errors.New("invalid session encoding")

// Encode serialises s. SessionID is not part of the blob; it is the key the
// blob is stored under.
//
// Layout: version | len(listKey) listKey | len(itemID) itemID | flags |
// createdAt int64 BE | expiresAt int64 BE.
func Encode(s *Session) ([]byte, error) {
	if len(s.ListKey) > 255 {
		return nil, errors.New("listKey too long")
	}
	if len(s.ItemID) > 255 {
		return nil, errors.New("itemID too long")
	}

	var buf bytes.Buffer
	buf.Grow(3 + len(s.ListKey) + len(s.ItemID) + 1 + 16)

	buf.WriteByte(formatVersionCurrent)
	buf.WriteByte(byte(len(s.ListKey)))
	buf.WriteString(s.ListKey)
	buf.WriteByte(byte(len(s.ItemID)))
	buf.WriteString(s.ItemID)

	var flags byte
	if s.Admin {
		flags |= flagAdmin
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if version != formatVersionCurrent {
		return nil, ErrInvalidEncoding
	}

	s := &Session{}

	if s.ListKey, err = readShortString(reader); err != nil {
		return nil, ErrInvalidEncoding
	}
	if s.ItemID, err = readShortString(reader); err != nil {
		return nil, ErrInvalidEncoding
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if flags&^flagAdmin != 0 {
		return nil, ErrInvalidEncoding
	}
	s.Admin = flags&flagAdmin != 0

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, ErrInvalidEncoding
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, ErrInvalidEncoding
	}
	if reader.Len() != 0 {
		return nil, ErrInvalidEncoding
	}

	return s, nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
