package kbd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robotalks/termkbd/pkg/ps2"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	onStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderMatrix renders matrix rows in the dump layout, highlighting
// pressed keys when styled.
func RenderMatrix(rows []byte, styled bool) string {
	var matrix ps2.Matrix
	copy(matrix[:], rows)
	if !styled {
		return matrix.String()
	}
	var w strings.Builder
	w.WriteString(headerStyle.Render("r/c 01234567"))
	w.WriteByte('\n')
	for row := range matrix {
		w.WriteString(headerStyle.Render(fmt.Sprintf("%02X:", row)))
		w.WriteByte(' ')
		for col := 0; col < ps2.MatrixCols; col++ {
			if matrix.IsOn(row, col) {
				w.WriteString(onStyle.Render("1"))
			} else {
				w.WriteString(offStyle.Render("0"))
			}
		}
		w.WriteByte('\n')
	}
	return w.String()
}
