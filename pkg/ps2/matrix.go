package ps2

import (
	"bytes"
	"fmt"
)

// Matrix records pressed keys. A scan code addresses the bit ColOf(code)
// of row RowOf(code).
//
//	   8bit wide
//	  +---------+
//	 0|         |
//	 :|         | 0x00-0x87
//	16|         |
//	  +---------+
type Matrix [MatrixRows]uint8

// KeyChange is a cell which differs between two matrices.
type KeyChange struct {
	Code    byte
	Pressed bool
}

// Row returns the bits of a row.
func (m *Matrix) Row(row int) (uint8, error) {
	if row < 0 || row >= MatrixRows {
		return 0, ErrRowOutOfRange
	}
	return m[row], nil
}

// IsOn indicates the key at row, col is pressed.
// Cells outside the matrix are never pressed.
func (m *Matrix) IsOn(row, col int) bool {
	if col < 0 || col >= MatrixCols {
		return false
	}
	bits, err := m.Row(row)
	return err == nil && bits&(1<<uint(col)) != 0
}

// Keys lists the codes of pressed keys in ascending order.
func (m *Matrix) Keys() []byte {
	var codes []byte
	for row, bits := range m {
		for col := 0; bits != 0; col, bits = col+1, bits>>1 {
			if bits&1 != 0 {
				codes = append(codes, CodeAt(row, col))
			}
		}
	}
	return codes
}

// Diff lists the cells of m which differ from prev.
func (m *Matrix) Diff(prev *Matrix) []KeyChange {
	var changes []KeyChange
	for row := range m {
		diff := m[row] ^ prev[row]
		for col := 0; diff != 0; col, diff = col+1, diff>>1 {
			if diff&1 != 0 {
				changes = append(changes, KeyChange{
					Code:    CodeAt(row, col),
					Pressed: m.IsOn(row, col),
				})
			}
		}
	}
	return changes
}

// Bytes returns a copy of all rows.
func (m *Matrix) Bytes() []byte {
	b := make([]byte, MatrixRows)
	copy(b, m[:])
	return b
}

// String renders the matrix for debugging, one row per line with
// column 0 first.
func (m *Matrix) String() string {
	var w bytes.Buffer
	w.WriteString("r/c 01234567\n")
	for row, bits := range m {
		fmt.Fprintf(&w, "%02X: ", row)
		for col := 0; col < MatrixCols; col++ {
			if bits&(1<<uint(col)) != 0 {
				w.WriteByte('1')
			} else {
				w.WriteByte('0')
			}
		}
		w.WriteByte('\n')
	}
	return w.String()
}

func (m *Matrix) clear() {
	*m = Matrix{}
}

// press sets the cell of code, reports whether the matrix changed.
func (m *Matrix) press(code byte) bool {
	if !IsValidCode(code) || m.IsOn(RowOf(code), ColOf(code)) {
		return false
	}
	m[RowOf(code)] |= 1 << uint(ColOf(code))
	return true
}

// release clears the cell of code, reports whether the matrix changed.
func (m *Matrix) release(code byte) bool {
	if !IsValidCode(code) || !m.IsOn(RowOf(code), ColOf(code)) {
		return false
	}
	m[RowOf(code)] &^= 1 << uint(ColOf(code))
	return true
}
