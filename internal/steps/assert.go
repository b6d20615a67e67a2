package steps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"
)

// asserter adapts testify assertions to step errors.
type asserter struct {
	failures []string
}

func (a *asserter) Errorf(format string, args ...any) {
	a.failures = append(a.failures, fmt.Sprintf(format, args...))
}

func (a *asserter) err() error {
	if len(a.failures) == 0 {
		return nil
	}
	return errors.New(strings.TrimSpace(strings.Join(a.failures, "\n")))
}

// expect runs fn against a fresh asserter and returns its failure, if any.
func expect(fn func(t assert.TestingT)) error {
	var a asserter
	fn(&a)
	return a.err()
}
