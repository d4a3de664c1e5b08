package desktop

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrEmptyCommand is returned when an Exec line expands to nothing.
var ErrEmptyCommand = errors.New("empty command")

// Command expands the Exec key into an argv. files fill %f/%F/%u/%U;
// deprecated field codes are dropped.
func (e *Entry) Command(files ...string) ([]string, error) {
	if e.Exec == "" {
		return nil, fmt.Errorf("%s: %w", e.Path, ErrEmptyCommand)
	}

	words, err := shellquote.Split(unescape(e.Exec))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to split Exec %q: %w", e.Path, e.Exec, err)
	}

	var argv []string
	for _, word := range words {
		switch word {
		case "%F", "%U":
			argv = append(argv, files...)
			continue
		case "%f", "%u":
			if len(files) > 0 {
				argv = append(argv, files[0])
			}
			continue
		case "%i":
			if e.Icon != "" {
				argv = append(argv, "--icon", e.Icon)
			}
			continue
		case "%d", "%D", "%n", "%N", "%v", "%m":
			continue
		}

		if expanded := e.expandInline(word, files); expanded != "" {
			argv = append(argv, expanded)
		}
	}

	if len(argv) == 0 {
		return nil, fmt.Errorf("%s: %w", e.Path, ErrEmptyCommand)
	}
	return argv, nil
}

func (e *Entry) expandInline(word string, files []string) string {
	if !strings.Contains(word, "%") {
		return word
	}

	first := ""
	if len(files) > 0 {
		first = files[0]
	}

	var b strings.Builder
	for i := 0; i < len(word); i++ {
		if word[i] != '%' || i+1 == len(word) {
			b.WriteByte(word[i])
			continue
		}
		i++
		switch word[i] {
		case '%':
			b.WriteByte('%')
		case 'f', 'u', 'F', 'U':
			b.WriteString(first)
		case 'c':
			b.WriteString(e.Name)
		case 'k':
			b.WriteString(e.Path)
		case 'i':
			b.WriteString(e.Icon)
		default:
			// unknown or deprecated code: drop it
		}
	}
	return b.String()
}

// Binary returns the program Exec would start, without arguments.
func (e *Entry) Binary() string {
	argv, err := e.Command()
	if err != nil {
		return ""
	}
	return argv[0]
}
