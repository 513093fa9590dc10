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

import "testing"

func TestNibble_StringRendersHex(t *testing.T) {
	tests := []struct {
		nibble Nibble
		want   string
	}{
		{0, "0"},
		{9, "9"},
		{10, "a"},
		{15, "f"},
	}
	for _, test := range tests {
		if got := test.nibble.String(); got != test.want {
			t.Errorf("Nibble(%d).String() = %q, want %q", test.nibble, got, test.want)
		}
	}
}
