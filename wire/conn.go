package wire

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// maxFDs is the most file descriptors that will be accepted alongside
// a single read from the socket. libwayland uses the same limit.
const maxFDs = 28

func xdgRuntimeDir() string {
	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if ok {
		return dir
	}
	return fmt.Sprintf("/var/run/user/%v", os.Getuid())
}

// SocketPath determines the path to the Wayland Unix domain socket
// based on the contents of the $WAYLAND_DISPLAY environment variable.
// It does not attempt to determine if the value corresponds to an
// actual socket.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	if filepath.IsAbs(v) {
		return v
	}

	return filepath.Join(xdgRuntimeDir(), v)
}

// Conn represents a low-level Wayland connection. It is not generally
// used directly, instead being handled automatically by a Display.
//
// Reads must all happen from a single goroutine. Writes and file
// descriptor handling are safe for concurrent use.
type Conn struct {
	conn *net.UnixConn

	rbuf    []byte
	scratch []byte
	oob     []byte

	wm sync.Mutex

	fdm sync.Mutex
	fds []int
}

// NewConn creates a new Conn that wraps c. After this is called, use
// the provided Close method to close c instead of calling its own
// Close method.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{
		conn:    c,
		scratch: make([]byte, 4096),
		oob:     make([]byte, unix.CmsgSpace(maxFDs*4)),
	}
}

// Dial opens a connection to the Wayland socket based on the current
// environment. It follows the procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial() (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			c.Close()
			return nil, errors.New("WAYLAND_SOCKET is not a Unix socket")
		}
		return NewConn(uc), nil
	}

	s, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, err
	}
	return NewConn(s.(*net.UnixConn)), nil
}

// Pair returns two connected Conns backed by a socketpair. It is
// mostly useful for testing.
func Pair() (*Conn, *Conn, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}

	var conns [2]*Conn
	for i, fd := range fds {
		file := os.NewFile(uintptr(fd), "wayland-pair")
		c, err := net.FileConn(file)
		file.Close()
		if err != nil {
			if conns[0] != nil {
				conns[0].Close()
			} else {
				unix.Close(fds[1])
			}
			return nil, nil, fmt.Errorf("open socketpair end: %w", err)
		}
		conns[i] = NewConn(c.(*net.UnixConn))
	}

	return conns[0], conns[1], nil
}

// Close closes the underlying connection and any file descriptors
// that were received but never claimed.
func (c *Conn) Close() error {
	c.fdm.Lock()
	for _, fd := range c.fds {
		unix.Close(fd)
	}
	c.fds = nil
	c.fdm.Unlock()

	return c.conn.Close()
}

// fill reads from the socket until at least n bytes are buffered.
func (c *Conn) fill(n int) error {
	for len(c.rbuf) < n {
		rn, oobn, _, _, err := c.conn.ReadMsgUnix(c.scratch, c.oob)
		if oobn > 0 {
			ferr := c.readFDs(c.oob[:oobn])
			if ferr != nil {
				return ferr
			}
		}
		if rn > 0 {
			c.rbuf = append(c.rbuf, c.scratch[:rn]...)
		}
		if err != nil {
			return err
		}
		if rn == 0 {
			return io.EOF
		}
	}
	return nil
}

func (c *Conn) readFDs(data []byte) error {
	cmsgs, err := unix.ParseSocketControlMessage(data)
	if err != nil {
		return fmt.Errorf("parse socket control messages: %w", err)
	}

	c.fdm.Lock()
	defer c.fdm.Unlock()

	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			if errors.Is(err, unix.EINVAL) {
				continue
			}
			return fmt.Errorf("parse unix control message: %w", err)
		}
		c.fds = append(c.fds, fds...)
	}
	return nil
}

// popFD removes the oldest received file descriptor from the queue.
func (c *Conn) popFD() (int, bool) {
	c.fdm.Lock()
	defer c.fdm.Unlock()

	if len(c.fds) == 0 {
		return -1, false
	}
	fd := c.fds[0]
	c.fds = c.fds[1:]
	return fd, true
}

func (c *Conn) writeMsg(data, oob []byte) error {
	c.wm.Lock()
	defer c.wm.Unlock()

	_, _, err := c.conn.WriteMsgUnix(data, oob, nil)
	return err
}
