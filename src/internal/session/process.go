package session

import (
	"errors"
	"net"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
	"github.com/vishvananda/netlink"
)

// ProcessInfo is a running process.
type ProcessInfo struct {
	PID  int
	Name string
}

// ProcessLister returns the running processes.
type ProcessLister func() ([]ProcessInfo, error)

// SystemProcesses lists processes from the system process table.
func SystemProcesses() ([]ProcessInfo, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, err
	}
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		out = append(out, ProcessInfo{PID: p.Pid(), Name: p.Executable()})
	}
	return out, nil
}

// FindProcesses returns processes running program, excluding this one.
// Names are compared the way the kernel reports them (at most 15 bytes).
func FindProcesses(list ProcessLister, program string) ([]ProcessInfo, error) {
	procs, err := list()
	if err != nil {
		return nil, err
	}

	name := commName(filepath.Base(program))
	self := os.Getpid()

	var found []ProcessInfo
	for _, p := range procs {
		if p.PID != self && commName(p.Name) == name {
			found = append(found, p)
		}
	}
	return found, nil
}

func commName(name string) string {
	if len(name) > 15 {
		return name[:15]
	}
	return name
}

// TunLinkUp reports whether the named link exists and is up.
func TunLinkUp(name string) (bool, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}

	attrs := link.Attrs()
	return attrs.Flags&net.FlagUp != 0 || attrs.OperState == netlink.OperUp, nil
}
