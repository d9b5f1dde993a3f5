package services

import "fmt"

// Progress receives the human-readable step lines of a workflow. A nil
// Progress discards them.
type Progress func(line string)

func (p Progress) printf(format string, args ...any) {
	if p != nil {
		p(fmt.Sprintf(format, args...))
	}
}
