package desktop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		files []string
		want  []string
	}{
		{
			name:  "single url code without files",
			entry: Entry{Exec: "firefox %u"},
			want:  []string{"firefox"},
		},
		{
			name:  "single file code with files",
			entry: Entry{Exec: "gimp %f"},
			files: []string{"/tmp/a.png", "/tmp/b.png"},
			want:  []string{"gimp", "/tmp/a.png"},
		},
		{
			name:  "file list",
			entry: Entry{Exec: "gimp %F"},
			files: []string{"/tmp/a.png", "/tmp/b.png"},
			want:  []string{"gimp", "/tmp/a.png", "/tmp/b.png"},
		},
		{
			name:  "icon and name codes",
			entry: Entry{Exec: "app %i --title=%c", Icon: "app-icon", Name: "My App"},
			want:  []string{"app", "--icon", "app-icon", "--title=My App"},
		},
		{
			name:  "quoted arguments",
			entry: Entry{Exec: `sh -c "echo hello world"`},
			want:  []string{"sh", "-c", "echo hello world"},
		},
		{
			name:  "literal percent",
			entry: Entry{Exec: "printf 100%%"},
			want:  []string{"printf", "100%"},
		},
		{
			name:  "deprecated codes dropped",
			entry: Entry{Exec: "xterm %d %m"},
			want:  []string{"xterm"},
		},
		{
			name:  "location code",
			entry: Entry{Exec: "launcher %k", Path: "/apps/x.desktop"},
			want:  []string{"launcher", "/apps/x.desktop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.entry.Command(tt.files...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandEmpty(t *testing.T) {
	_, err := (&Entry{}).Command()
	assert.True(t, errors.Is(err, ErrEmptyCommand))

	_, err = (&Entry{Exec: "%f"}).Command()
	assert.True(t, errors.Is(err, ErrEmptyCommand))
}

func TestCommandUnbalancedQuotes(t *testing.T) {
	_, err := (&Entry{Exec: `app "unterminated`}).Command()
	assert.Error(t, err)
}

func TestBinary(t *testing.T) {
	assert.Equal(t, "firefox", (&Entry{Exec: "firefox %u"}).Binary())
	assert.Equal(t, "", (&Entry{}).Binary())
}
