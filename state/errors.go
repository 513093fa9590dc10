// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import "fmt"

// CorruptionError reports that bytes read from the backing tries or the
// code table failed to decode as the structure this package expects, or
// that an update produced a result this package's own invariants forbid.
type CorruptionError struct {
	msg string
}

func (e *CorruptionError) Error() string { return "state: corruption: " + e.msg }

func newCorruptionError(format string, args ...any) *CorruptionError {
	return &CorruptionError{msg: fmt.Sprintf(format, args...)}
}

// UsageError signals API misuse by the caller, such as an update entry that
// names neither a removal nor a change.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return "state: invalid argument: " + e.msg }

func newUsageError(format string, args ...any) *UsageError {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}
