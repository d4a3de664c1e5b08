//go:build windows

package discovery

import (
	"fmt"
	"os"
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// ResolveShortcut reads a .lnk file through the WScript.Shell COM object.
func ResolveShortcut(path string) (*Shortcut, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED|ole.COINIT_SPEED_OVER_MEMORY); err != nil {
		// S_FALSE: already initialized on this thread
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 1 {
			return nil, fmt.Errorf("failed to initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return nil, fmt.Errorf("failed to create WScript.Shell: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, fmt.Errorf("failed to query IDispatch: %w", err)
	}
	defer shell.Release()

	lnk, err := oleutil.CallMethod(shell, "CreateShortcut", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shortcut %s: %w", path, err)
	}
	link := lnk.ToIDispatch()
	defer link.Release()

	s := &Shortcut{
		Target:       stringProperty(link, "TargetPath"),
		Arguments:    stringProperty(link, "Arguments"),
		WorkingDir:   stringProperty(link, "WorkingDirectory"),
		IconLocation: os.ExpandEnv(stringProperty(link, "IconLocation")),
	}
	return s, nil
}

func stringProperty(d *ole.IDispatch, name string) string {
	v, err := oleutil.GetProperty(d, name)
	if err != nil {
		return ""
	}
	defer v.Clear()
	return v.ToString()
}
