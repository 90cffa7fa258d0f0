package ps2

// Host to device commands.
const (
	// CmdReset resets the device and triggers the self test.
	CmdReset byte = 0xff
	// CmdSetAllMakeBreak configures all keys to report make and break codes.
	CmdSetAllMakeBreak byte = 0xf8
)

// Device to host bytes.
const (
	// RespAck acknowledges a command.
	RespAck byte = 0xfa
	// RespSelfTestPassed is sent after a successful reset.
	RespSelfTestPassed byte = 0xaa
	// CodeBreak prefixes the code of a released key.
	CodeBreak byte = 0xf0
	// CodeNone means no byte is pending.
	CodeNone byte = 0x00
	// CodeLimit is the first code outside the matrix.
	CodeLimit byte = 0x88
)

// Matrix dimensions.
const (
	MatrixRows = 17
	MatrixCols = 8
)

// RowOf returns the matrix row of a scan code.
func RowOf(code byte) int {
	return int(code >> 3)
}

// ColOf returns the matrix column of a scan code.
func ColOf(code byte) int {
	return int(code & 0x07)
}

// CodeAt returns the scan code addressing the cell at row, col.
func CodeAt(row, col int) byte {
	return byte(row<<3 | col&0x07)
}

// IsValidCode indicates the code addresses a matrix cell.
func IsValidCode(code byte) bool {
	return code < CodeLimit
}
