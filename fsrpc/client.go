/*
 * The syscall client stub.
 *
 * A Client owns one MessageConnection and issues strictly synchronous round trips on it:
 * build the request, send it, block for the one response. The Result it hands back is
 * POSIX style - negative values are errno codes from the server's OS and describe the
 * remote syscall failing. A Go error from any of these calls means something different:
 * the round trip itself broke (connect failure, connection drop, undecodable response),
 * and the caller cannot know whether the remote syscall ran at all. Nothing is retried
 * here; a Write that may or may not have happened is not safe to replay blindly.
 *
 * A Client is not safe for concurrent use. Benchmark workers each hold their own.
 */

package fsrpc

import "fmt"
import "time"

import "fxbench/comms"


type Client struct {
    conn *comms.MessageConnection
    timeout time.Duration
}


// Connect - Open a syscall connection to the given server address.
// The timeout bounds the connection attempt and each individual round trip; pass 0 for no bound.
func Connect(address string, timeout time.Duration) (*Client, error) {
    conn, err := comms.ConnectTCP(address, comms.MakeEncoderFactory(), timeout)
    if err != nil {
        return nil, err
    }

    return &Client{conn: conn, timeout: timeout}, nil
}


// Close - Close the connection. No further calls may be made.
func (c *Client) Close() {
    c.conn.Close()
}


// Open - Open (perhaps creating) the file at path, relative to the server's data directory.
// Returns the new remote descriptor, or a negated errno.
func (c *Client) Open(path string, flags int32, mode uint32) (int32, error) {
    resp, err := c.call(OP_Open, &OpenRequest{Path: path, Flags: flags, Mode: mode})
    if err != nil {
        return -1, err
    }

    return resp.Result, nil
}


// Read - Read up to size bytes from the descriptor's implicit position, advancing it.
func (c *Client) Read(fd int32, size uint32) (int32, []byte, error) {
    resp, err := c.call(OP_Read, &ReadRequest{Fd: fd, Size: size})
    if err != nil {
        return -1, nil, err
    }

    return resp.Result, resp.Page, nil
}


// Pread - Read up to size bytes from the given offset, leaving the implicit position alone.
func (c *Client) Pread(fd int32, size uint32, offset int64) (int32, []byte, error) {
    resp, err := c.call(OP_Read, &ReadRequest{Pread: true, Fd: fd, Size: size, Offset: offset})
    if err != nil {
        return -1, nil, err
    }

    return resp.Result, resp.Page, nil
}


// Write - Write page at the descriptor's implicit position, advancing it.
func (c *Client) Write(fd int32, page []byte) (int32, error) {
    resp, err := c.call(OP_Write, &WriteRequest{Fd: fd, Page: page, Len: uint32(len(page))})
    if err != nil {
        return -1, err
    }

    return resp.Result, nil
}


// Pwrite - Write page at the given offset, leaving the implicit position alone.
func (c *Client) Pwrite(fd int32, page []byte, offset int64) (int32, error) {
    resp, err := c.call(OP_Write, &WriteRequest{Pwrite: true, Fd: fd, Page: page, Len: uint32(len(page)), Offset: offset})
    if err != nil {
        return -1, err
    }

    return resp.Result, nil
}


// CloseFd - Close the remote descriptor. The descriptor is invalid afterwards even if the
// server reports a failure.
func (c *Client) CloseFd(fd int32) (int32, error) {
    resp, err := c.call(OP_Close, &CloseRequest{Fd: fd})
    if err != nil {
        return -1, err
    }

    return resp.Result, nil
}


// Remove - Unlink the file at path.
func (c *Client) Remove(path string) (int32, error) {
    resp, err := c.call(OP_Remove, &RemoveRequest{Path: path})
    if err != nil {
        return -1, err
    }

    return resp.Result, nil
}


// Fsync - Ask the server's file system to flush the descriptor. Durability is whatever
// that file system provides; we only forward the request.
func (c *Client) Fsync(fd int32) (int32, error) {
    resp, err := c.call(OP_Fsync, &FsyncRequest{Fd: fd})
    if err != nil {
        return -1, err
    }

    return resp.Result, nil
}


// Mkdir - Create the directory at path.
func (c *Client) Mkdir(path string, mode uint32) (int32, error) {
    resp, err := c.call(OP_Mkdir, &MkdirRequest{Path: path, Mode: mode})
    if err != nil {
        return -1, err
    }

    return resp.Result, nil
}


// Rmdir - Remove the directory at path.
func (c *Client) Rmdir(path string, mode uint32) (int32, error) {
    resp, err := c.call(OP_Rmdir, &RmdirRequest{Path: path, Mode: mode})
    if err != nil {
        return -1, err
    }

    return resp.Result, nil
}


// Fstat - Report the size of the open file behind the descriptor.
func (c *Client) Fstat(fd int32) (int32, int64, error) {
    msg, err := c.conn.SendReceive(uint8(OP_Fstat), &FstatRequest{Fd: fd}, c.timeout)
    if err != nil {
        return -1, 0, err
    }

    if Opcode(msg.ID()) != OP_Fstat {
        return -1, 0, fmt.Errorf("Unexpected response opcode: expected %v but got %v", OP_Fstat.ToString(), Opcode(msg.ID()).ToString())
    }

    var resp FstatResponse
    err = msg.Data(&resp)
    if err != nil {
        return -1, 0, err
    }

    return resp.Result, resp.Size, nil
}


/* One round trip for every operation with the general response shape. */
func (c *Client) call(op Opcode, req interface{}) (*SyscallResponse, error) {
    msg, err := c.conn.SendReceive(uint8(op), req, c.timeout)
    if err != nil {
        return nil, err
    }

    if Opcode(msg.ID()) != op {
        return nil, fmt.Errorf("Unexpected response opcode: expected %v but got %v", op.ToString(), Opcode(msg.ID()).ToString())
    }

    var resp SyscallResponse
    err = msg.Data(&resp)
    if err != nil {
        return nil, err
    }

    return &resp, nil
}
