// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rlp

import (
	"errors"
	"fmt"
)

// ErrMalformed is reported for any encoding this decoder cannot make
// sense of: truncated payloads, length prefixes pointing past the end
// of the data, or items of the wrong shape.
var ErrMalformed = errors.New("rlp: malformed encoding")

// IsList reports whether data starts with a list item.
func IsList(data []byte) bool {
	return len(data) > 0 && data[0] >= 0xC0
}

// DecodeString returns the content bytes of a single string item.
// The data must contain exactly that one item.
func DecodeString(data []byte) ([]byte, error) {
	header, content, isList, err := itemBounds(data)
	if err != nil {
		return nil, err
	}
	if isList {
		return nil, fmt.Errorf("%w: expected a string, found a list", ErrMalformed)
	}
	if header+content != len(data) {
		return nil, fmt.Errorf("%w: trailing bytes after string item", ErrMalformed)
	}
	return data[header : header+content], nil
}

// DecodeList splits a single list item into the raw encodings of its
// elements, each returned verbatim including its own header. The data
// must contain exactly that one list.
func DecodeList(data []byte) ([][]byte, error) {
	header, content, isList, err := itemBounds(data)
	if err != nil {
		return nil, err
	}
	if !isList {
		return nil, fmt.Errorf("%w: expected a list, found a string", ErrMalformed)
	}
	if header+content != len(data) {
		return nil, fmt.Errorf("%w: trailing bytes after list item", ErrMalformed)
	}

	var items [][]byte
	rest := data[header : header+content]
	for len(rest) > 0 {
		h, c, _, err := itemBounds(rest)
		if err != nil {
			return nil, err
		}
		size := h + c
		items = append(items, rest[:size])
		rest = rest[size:]
	}
	return items, nil
}

// itemBounds parses the header of the item at the start of data and
// returns the header size, the content size, and whether the item is a
// list. A single byte below 0x80 is its own content with no header.
func itemBounds(data []byte) (header, content int, isList bool, err error) {
	if len(data) == 0 {
		return 0, 0, false, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	b := data[0]
	switch {
	case b < 0x80:
		header, content = 0, 1
	case b < 0xB8:
		header, content = 1, int(b-0x80)
	case b < 0xC0:
		header, content, err = longBounds(data, int(b-0xB7))
	case b < 0xF8:
		header, content, isList = 1, int(b-0xC0), true
	default:
		isList = true
		header, content, err = longBounds(data, int(b-0xF7))
	}
	if err != nil {
		return 0, 0, false, err
	}
	if header+content > len(data) {
		return 0, 0, false, fmt.Errorf("%w: declared length exceeds input", ErrMalformed)
	}
	return header, content, isList, nil
}

// longBounds decodes an n-byte big-endian length following the first
// header byte.
func longBounds(data []byte, n int) (header, content int, err error) {
	if len(data) < 1+n {
		return 0, 0, fmt.Errorf("%w: truncated length prefix", ErrMalformed)
	}
	length := 0
	for _, c := range data[1 : 1+n] {
		length = length<<8 | int(c)
	}
	return 1 + n, length, nil
}
