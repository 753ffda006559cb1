// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build linux || darwin

/*
 * The remote executor. It listens for syscall clients, and maps each request it receives
 * onto one local OS call, executed under the server's data directory.
 *
 * Descriptors handed out by Open are our own handles, allocated from a monotonic counter:
 * they are never the raw OS fd, and never reused within a session. That way an in-flight
 * request can never find its handle quietly rebound to some newer file.
 *
 * Each handle carries its own lock. Non-positional reads and writes share the OS file
 * position, so every operation on a handle takes that lock for the duration of the OS
 * call. That is the whole of the server's correctness story: position advancement and
 * byte transfer are atomic per descriptor, and a Close cannot pull the fd out from under
 * an operation that is still running.
 */

package fsrpc

import "fmt"
import "os"
import "path/filepath"
import "strings"
import "sync"

import "golang.org/x/sys/unix"

import "fxbench/comms"
import "fxbench/logger"


/* Refuse single transfers beyond this: bigger requests indicate a broken client. */
const maxTransferSize = 16 * 1024 * 1024


type Server struct {
    root string
    listener *comms.Listener
    connChannel chan *comms.MessageConnection
    fds fdTable
}


/*
 * StartServer - Listen on the given address and serve syscall requests against the tree
 * rooted at the given directory. Returns once the listening socket is established; serving
 * happens on background goroutines.
 */
func StartServer(address string, root string) (*Server, error) {
    absRoot, err := filepath.Abs(root)
    if err != nil {
        return nil, err
    }

    info, err := os.Stat(absRoot)
    if err != nil {
        return nil, fmt.Errorf("Server unable to start - can't stat data directory %v: %v", absRoot, err)
    }

    if !info.Mode().IsDir() {
        return nil, fmt.Errorf("Server unable to start - not a directory: %v", absRoot)
    }

    var s Server
    s.root = absRoot
    s.fds.entries = make(map[int32]*fdEntry)
    s.fds.nextFd = 1
    s.connChannel = make(chan *comms.MessageConnection, 100)

    s.listener, err = comms.ListenTCP(address, comms.MakeEncoderFactory(), s.connChannel)
    if err != nil {
        return nil, err
    }

    logger.Infof("Serving %v on %v\n", s.root, s.listener.Address())

    go s.acceptConnections()

    return &s, nil
}


// Address - Report the address we are listening on, in IP:port form.
func (s *Server) Address() string {
    return s.listener.Address()
}


// Stop - Stop accepting new connections. Existing connections run until their clients close them.
func (s *Server) Stop() {
    s.listener.StopListening()
}


/* Hand each new connection its own goroutine. Requests on one connection are handled sequentially. */
func (s *Server) acceptConnections() {
    for conn := range s.connChannel {
        logger.Infof("Connection from %v\n", conn.RemoteIP())
        go s.serveConnection(conn)
    }
}


func (s *Server) serveConnection(conn *comms.MessageConnection) {
    defer conn.Close()

    for {
        msg, err := conn.Receive(0)
        if err != nil {
            logger.Debugf("Connection from %v finished: %v\n", conn.RemoteIP(), err)
            return
        }

        if !s.dispatch(conn, msg) {
            // Protocol error: behavior is undefined from here, so drop the connection.
            logger.Warnf("Dropping connection from %v after protocol error\n", conn.RemoteIP())
            return
        }
    }
}


/*
 * Execute one request and send its response.
 * Returns false if the request could not be decoded or the response could not be sent.
 */
func (s *Server) dispatch(conn *comms.MessageConnection, msg comms.ReceivedMessage) bool {
    op := Opcode(msg.ID())

    var resp interface{}

    switch op {
        case OP_Open:
            var req OpenRequest
            if msg.Data(&req) != nil { return false }
            resp = s.open(&req)

        case OP_Read:
            var req ReadRequest
            if msg.Data(&req) != nil { return false }
            resp = s.read(&req)

        case OP_Write:
            var req WriteRequest
            if msg.Data(&req) != nil { return false }
            resp = s.write(&req)

        case OP_Close:
            var req CloseRequest
            if msg.Data(&req) != nil { return false }
            resp = s.close(&req)

        case OP_Remove:
            var req RemoveRequest
            if msg.Data(&req) != nil { return false }
            resp = s.remove(&req)

        case OP_Fsync:
            var req FsyncRequest
            if msg.Data(&req) != nil { return false }
            resp = s.fsync(&req)

        case OP_Mkdir:
            var req MkdirRequest
            if msg.Data(&req) != nil { return false }
            resp = s.mkdir(&req)

        case OP_Rmdir:
            var req RmdirRequest
            if msg.Data(&req) != nil { return false }
            resp = s.rmdir(&req)

        case OP_Fstat:
            var req FstatRequest
            if msg.Data(&req) != nil { return false }
            resp = s.fstat(&req)

        default:
            logger.Warnf("Unknown opcode from %v: %v\n", conn.RemoteIP(), msg.ID())
            return false
    }

    err := conn.Send(uint8(op), resp)
    if err != nil {
        logger.Warnf("Failed to send %v response to %v: %v\n", op.ToString(), conn.RemoteIP(), err)
        return false
    }

    return true
}


// The operations themselves.

func (s *Server) open(req *OpenRequest) *SyscallResponse {
    path, ok := s.resolvePath(req.Path)
    if !ok {
        return &SyscallResponse{Result: -int32(unix.EACCES)}
    }

    sysfd, err := unix.Open(path, int(req.Flags), req.Mode)
    if err != nil {
        return &SyscallResponse{Result: errnoResult(err)}
    }

    fd := s.fds.insert(sysfd)
    logger.Tracef("Open %v -> fd %v\n", req.Path, fd)
    return &SyscallResponse{Result: fd}
}


func (s *Server) read(req *ReadRequest) *SyscallResponse {
    if req.Size > maxTransferSize {
        return &SyscallResponse{Result: -int32(unix.EINVAL)}
    }

    entry := s.fds.lookup(req.Fd)
    if entry == nil {
        return &SyscallResponse{Result: -int32(unix.EBADF)}
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()

    if entry.closed {
        return &SyscallResponse{Result: -int32(unix.EBADF)}
    }

    buffer := make([]byte, req.Size)

    var count int
    var err error
    if req.Pread {
        count, err = unix.Pread(entry.sysfd, buffer, req.Offset)
    } else {
        count, err = unix.Read(entry.sysfd, buffer)
    }

    if err != nil {
        return &SyscallResponse{Result: errnoResult(err)}
    }

    return &SyscallResponse{Result: int32(count), Page: buffer[:count]}
}


func (s *Server) write(req *WriteRequest) *SyscallResponse {
    if (req.Len > maxTransferSize) || (int(req.Len) > len(req.Page)) {
        return &SyscallResponse{Result: -int32(unix.EINVAL)}
    }

    entry := s.fds.lookup(req.Fd)
    if entry == nil {
        return &SyscallResponse{Result: -int32(unix.EBADF)}
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()

    if entry.closed {
        return &SyscallResponse{Result: -int32(unix.EBADF)}
    }

    data := req.Page[:req.Len]

    var count int
    var err error
    if req.Pwrite {
        count, err = unix.Pwrite(entry.sysfd, data, req.Offset)
    } else {
        count, err = unix.Write(entry.sysfd, data)
    }

    if err != nil {
        return &SyscallResponse{Result: errnoResult(err)}
    }

    return &SyscallResponse{Result: int32(count)}
}


func (s *Server) close(req *CloseRequest) *SyscallResponse {
    // Remove the handle first so no new operation can find it, then wait for any
    // in-flight operation by taking the entry lock before closing the OS fd.
    entry := s.fds.remove(req.Fd)
    if entry == nil {
        return &SyscallResponse{Result: -int32(unix.EBADF)}
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()

    entry.closed = true
    logger.Tracef("Close fd %v\n", req.Fd)
    return &SyscallResponse{Result: errnoResult(unix.Close(entry.sysfd))}
}


func (s *Server) remove(req *RemoveRequest) *SyscallResponse {
    path, ok := s.resolvePath(req.Path)
    if !ok {
        return &SyscallResponse{Result: -int32(unix.EACCES)}
    }

    return &SyscallResponse{Result: errnoResult(unix.Unlink(path))}
}


func (s *Server) fsync(req *FsyncRequest) *SyscallResponse {
    entry := s.fds.lookup(req.Fd)
    if entry == nil {
        return &SyscallResponse{Result: -int32(unix.EBADF)}
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()

    if entry.closed {
        return &SyscallResponse{Result: -int32(unix.EBADF)}
    }

    return &SyscallResponse{Result: errnoResult(unix.Fsync(entry.sysfd))}
}


func (s *Server) mkdir(req *MkdirRequest) *SyscallResponse {
    path, ok := s.resolvePath(req.Path)
    if !ok {
        return &SyscallResponse{Result: -int32(unix.EACCES)}
    }

    return &SyscallResponse{Result: errnoResult(unix.Mkdir(path, req.Mode))}
}


func (s *Server) rmdir(req *RmdirRequest) *SyscallResponse {
    path, ok := s.resolvePath(req.Path)
    if !ok {
        return &SyscallResponse{Result: -int32(unix.EACCES)}
    }

    return &SyscallResponse{Result: errnoResult(unix.Rmdir(path))}
}


func (s *Server) fstat(req *FstatRequest) *FstatResponse {
    entry := s.fds.lookup(req.Fd)
    if entry == nil {
        return &FstatResponse{Result: -int32(unix.EBADF)}
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()

    if entry.closed {
        return &FstatResponse{Result: -int32(unix.EBADF)}
    }

    var stat unix.Stat_t
    err := unix.Fstat(entry.sysfd, &stat)
    if err != nil {
        return &FstatResponse{Result: errnoResult(err)}
    }

    return &FstatResponse{Result: 0, Size: stat.Size}
}


/* Resolve a client-supplied path against our root, refusing anything that escapes it. */
func (s *Server) resolvePath(path string) (string, bool) {
    full := filepath.Join(s.root, path)

    if (full != s.root) && !strings.HasPrefix(full, s.root + string(filepath.Separator)) {
        logger.Warnf("Rejecting path outside data directory: %v\n", path)
        return "", false
    }

    return full, true
}


/* Turn a syscall error into a POSIX-style negative result. */
func errnoResult(err error) int32 {
    if err == nil {
        return 0
    }

    if errno, ok := err.(unix.Errno); ok {
        return -int32(errno)
    }

    return -int32(unix.EIO)
}


// The descriptor table.

/*
 * One entry per open handle. The mutex serializes every operation against the handle;
 * closed marks an entry whose OS fd has been (or is being) closed, for operations that
 * fetched the entry before a concurrent Close removed it from the table.
 */
type fdEntry struct {
    mu sync.Mutex
    sysfd int
    closed bool
}


type fdTable struct {
    mu sync.Mutex
    nextFd int32
    entries map[int32]*fdEntry
}


func (t *fdTable) insert(sysfd int) int32 {
    t.mu.Lock()
    defer t.mu.Unlock()

    fd := t.nextFd
    t.nextFd++
    t.entries[fd] = &fdEntry{sysfd: sysfd}
    return fd
}


func (t *fdTable) lookup(fd int32) *fdEntry {
    t.mu.Lock()
    defer t.mu.Unlock()

    return t.entries[fd]
}


func (t *fdTable) remove(fd int32) *fdEntry {
    t.mu.Lock()
    defer t.mu.Unlock()

    entry := t.entries[fd]
    delete(t.entries, fd)
    return entry
}
