// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import "fmt"

// CorruptionError reports that the backing store is internally
// inconsistent: a hash reference resolves to no entry, or stored bytes fail
// to decode as a node. Fatal; the core never retries it.
type CorruptionError struct {
	msg string
}

func (e *CorruptionError) Error() string { return "mpt: corruption: " + e.msg }

func newCorruptionError(format string, args ...any) *CorruptionError {
	return &CorruptionError{msg: fmt.Sprintf(format, args...)}
}

// IOError wraps a failure reported by the backing key-value store while
// opening, reading, or committing a transaction. The caller decides whether
// to retry.
type IOError struct {
	msg string
	err error
}

func (e *IOError) Error() string {
	if e.err != nil {
		return "mpt: i/o: " + e.msg + ": " + e.err.Error()
	}
	return "mpt: i/o: " + e.msg
}

func (e *IOError) Unwrap() error { return e.err }

func newIOError(msg string, cause error) *IOError {
	return &IOError{msg: msg, err: cause}
}

// EncodingError signals malformed RLP input at the codec boundary, distinct
// from a corruption error since it arises from parsing untrusted bytes
// rather than from an inconsistency discovered within the store.
type EncodingError struct {
	msg string
}

func (e *EncodingError) Error() string { return "mpt: malformed encoding: " + e.msg }

func newEncodingError(format string, args ...any) *EncodingError {
	return &EncodingError{msg: fmt.Sprintf(format, args...)}
}

// UsageError signals API misuse by the caller, such as supplying an empty
// value to insert where a removal was intended.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return "mpt: invalid argument: " + e.msg }

func newUsageError(format string, args ...any) *UsageError {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}
