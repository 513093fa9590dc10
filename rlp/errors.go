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

// StructuralError reports that the input stream was too short, or otherwise
// malformed in a way that prevented locating the boundaries of an item (an
// "input too short" class of failure).
type StructuralError struct {
	msg string
}

func (e *StructuralError) Error() string { return "rlp: structural error: " + e.msg }

// ValueError reports that the stream had the right shape but encoded a value
// in a non-canonical way, e.g. a length prefix that is not minimal. This is
// kept distinct from StructuralError per the codec's decoder contract.
type ValueError struct {
	msg string
}

func (e *ValueError) Error() string { return "rlp: malformed value: " + e.msg }
