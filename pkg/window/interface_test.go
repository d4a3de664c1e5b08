package window

import (
	"errors"
	"testing"
)

type MockActivator struct {
	windows       []WindowInfo
	isAvailable   bool
	displayServer string
	closeError    error
	activated     []uint32
}

func (m *MockActivator) Activate(class string) (bool, error) {
	w, ok := FindByClass(m.windows, class)
	if !ok {
		return false, nil
	}
	m.activated = append(m.activated, w.ID)
	return true, nil
}

func (m *MockActivator) Windows() ([]WindowInfo, error) {
	return m.windows, nil
}

func (m *MockActivator) IsAvailable() bool {
	return m.isAvailable
}

func (m *MockActivator) GetDisplayServer() string {
	return m.displayServer
}

func (m *MockActivator) Close() error {
	return m.closeError
}

func TestMockActivator(t *testing.T) {
	var _ Activator = (*MockActivator)(nil)
	var _ Lister = (*MockActivator)(nil)

	mock := &MockActivator{
		windows: []WindowInfo{
			{ID: 1, Class: "Firefox", Instance: "Navigator", Title: "Mozilla Firefox", DisplayServer: "x11"},
			{ID: 2, Class: "Gimp-2.10", Instance: "gimp", Title: "GNU Image Manipulation Program", DisplayServer: "x11"},
		},
		isAvailable:   true,
		displayServer: "x11",
	}

	ok, err := mock.Activate("firefox")
	if err != nil {
		t.Errorf("Activate() error: %v", err)
	}
	if !ok {
		t.Error("Activate(firefox) = false, want true")
	}

	ok, _ = mock.Activate("thunderbird")
	if ok {
		t.Error("Activate(thunderbird) = true, want false")
	}

	if len(mock.activated) != 1 || mock.activated[0] != 1 {
		t.Errorf("activated = %v, want [1]", mock.activated)
	}

	if !mock.IsAvailable() {
		t.Error("IsAvailable() = false, want true")
	}

	if mock.GetDisplayServer() != "x11" {
		t.Errorf("GetDisplayServer() = %s, want x11", mock.GetDisplayServer())
	}

	mock.closeError = errors.New("closed twice")
	if err := mock.Close(); err == nil {
		t.Error("Close() error = nil, want error")
	}
}

func TestFindByClass(t *testing.T) {
	windows := []WindowInfo{
		{ID: 1, Class: "Firefox", Instance: "Navigator"},
		{ID: 2, Class: "Gimp-2.10", Instance: "gimp"},
		{ID: 3, Class: "", Instance: ""},
	}

	tests := []struct {
		name   string
		class  string
		wantID uint32
		wantOK bool
	}{
		{"exact class", "Firefox", 1, true},
		{"case-insensitive class", "FIREFOX", 1, true},
		{"instance", "gimp", 2, true},
		{"instance upper", "Navigator", 1, true},
		{"prefix is not a match", "Fire", 0, false},
		{"empty never matches", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := FindByClass(windows, tt.class)
			if ok != tt.wantOK {
				t.Fatalf("FindByClass(%q) ok = %v, want %v", tt.class, ok, tt.wantOK)
			}
			if w.ID != tt.wantID {
				t.Errorf("FindByClass(%q) ID = %d, want %d", tt.class, w.ID, tt.wantID)
			}
		})
	}
}

func BenchmarkFindByClass(b *testing.B) {
	windows := make([]WindowInfo, 50)
	for i := range windows {
		windows[i] = WindowInfo{ID: uint32(i), Class: "App", Instance: "app"}
	}
	windows[49].Class = "Target"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FindByClass(windows, "target")
	}
}
