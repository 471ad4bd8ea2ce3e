package nfsmount

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os/exec"
	"runtime"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// Server manages the NFS server lifecycle.
type Server struct {
	listener net.Listener
	port     int
}

// NewServer starts an NFS server on addr (":0" picks an ephemeral port)
// backed by the given filesystem.
func NewServer(fs billy.Filesystem, addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("nfs listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	handler := nfshelper.NewNullAuthHandler(fs)
	cacheHelper := nfshelper.NewCachingHandler(handler, 4096)

	go func() {
		if err := nfs.Serve(listener, cacheHelper); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("nfsmount: serve: %v", err)
		}
	}()

	return &Server{listener: listener, port: port}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Port returns the TCP port the NFS server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Close stops the NFS server by closing the listener.
func (s *Server) Close() error {
	return s.listener.Close()
}

// mountCommand returns the argv that mounts the server at mountpoint on goos.
// The mount is always read-only; extra options are appended as given.
func mountCommand(goos string, port int, mountpoint string, extra []string) ([]string, error) {
	opts := []string{fmt.Sprintf("port=%d", port), fmt.Sprintf("mountport=%d", port), "vers=3", "tcp"}
	switch goos {
	case "darwin":
		opts = append(opts, "locallocks", "noresvport", "rdonly")
	case "linux":
		opts = append(opts, "local_lock=all", "nolock", "ro")
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
	opts = append(opts, extra...)
	return []string{"sudo", "mount", "-t", "nfs", "-o", strings.Join(opts, ","), "localhost:/", mountpoint}, nil
}

// unmountCommands returns the argvs to try in order to unmount mountpoint.
func unmountCommands(goos, mountpoint string) [][]string {
	umount := []string{"sudo", "umount", mountpoint}
	if goos == "darwin" {
		// diskutil needs no sudo for user NFS mounts
		return [][]string{{"diskutil", "unmount", mountpoint}, umount}
	}
	return [][]string{umount}
}

// Mount mounts the NFS server read-only at mountpoint with the system mount
// command. Requires sudo.
func Mount(port int, mountpoint string, extra ...string) error {
	argv, err := mountCommand(runtime.GOOS, port, mountpoint, extra)
	if err != nil {
		return err
	}
	output, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("mount %s: %w\n%s", mountpoint, err, output)
	}
	return nil
}

// Unmount unmounts mountpoint, trying each platform command until one succeeds.
func Unmount(mountpoint string) error {
	var errs []error
	for _, argv := range unmountCommands(runtime.GOOS, mountpoint) {
		output, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w\n%s", argv[0], err, output))
	}
	return fmt.Errorf("unmount %s: %w", mountpoint, errors.Join(errs...))
}
