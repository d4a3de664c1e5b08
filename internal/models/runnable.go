package models

// Runnable is a launchable item as returned to the front-end.
// Exec is the path or identifier that is handed back to run.
type Runnable struct {
	Name     string `json:"name"`
	Exec     string `json:"exec"`
	FileName string `json:"file_name,omitempty"`
	Icon     string `json:"icon,omitempty"`
}

func NewRunnable(name, exec string) Runnable {
	return Runnable{Name: name, Exec: exec}
}

// WithIcon returns a copy carrying the given icon reference.
func (r Runnable) WithIcon(icon string) Runnable {
	r.Icon = icon
	return r
}

// WithFileName returns a copy carrying the given file name.
func (r Runnable) WithFileName(name string) Runnable {
	r.FileName = name
	return r
}
