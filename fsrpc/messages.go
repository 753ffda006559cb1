/*
 * This file defines all the messages that can be sent between a syscall client and the
 * remote executor server.
 *
 * Every file system operation maps to exactly one request type, and every request yields
 * exactly one response. A response reuses the opcode of the request it answers.
 *
 * The Result field of a response is overloaded in the POSIX style:
 *   - Open: the new descriptor (>= 0), or a negated errno.
 *   - Read/Write: the number of bytes moved, or a negated errno.
 *   - everything else: 0, or a negated errno.
 * Errno values are those of the server's OS, passed through uninterpreted.
 */

package fsrpc


/* Opcodes used as the message type identifier between client and server. */
type Opcode uint8
const (
    OP_Open Opcode = 1
    OP_Read Opcode = 2
    OP_Write Opcode = 3
    OP_Close Opcode = 4
    OP_Remove Opcode = 5
    OP_Fsync Opcode = 6
    OP_Mkdir Opcode = 7
    OP_Rmdir Opcode = 8
    OP_Fstat Opcode = 9
)


func (op Opcode) ToString() string {
    switch op {
        case OP_Open:   return "Open"
        case OP_Read:   return "Read"
        case OP_Write:  return "Write"
        case OP_Close:  return "Close"
        case OP_Remove: return "Remove"
        case OP_Fsync:  return "Fsync"
        case OP_Mkdir:  return "Mkdir"
        case OP_Rmdir:  return "Rmdir"
        case OP_Fstat:  return "Fstat"
        default:        return "Unknown"
    }
}


type OpenRequest struct {
    Path string
    Flags int32
    Mode uint32
}


/* Pread selects a positional read at Offset; otherwise the descriptor's implicit position is used. */
type ReadRequest struct {
    Pread bool
    Fd int32
    Size uint32
    Offset int64
}


/* Pwrite selects a positional write at Offset; otherwise the descriptor's implicit position is used.
 * Len gives the number of bytes of Page to write. */
type WriteRequest struct {
    Pwrite bool
    Fd int32
    Page []byte
    Len uint32
    Offset int64
}


type CloseRequest struct {
    Fd int32
}


type RemoveRequest struct {
    Path string
}


type FsyncRequest struct {
    Fd int32
}


type MkdirRequest struct {
    Path string
    Mode uint32
}


type RmdirRequest struct {
    Path string
    Mode uint32
}


type FstatRequest struct {
    Fd int32
}


/* The general response shape. Page is only populated for reads. */
type SyscallResponse struct {
    Result int32
    Page []byte
}


/* Fstat has its own response shape: Size is only meaningful when Result >= 0. */
type FstatResponse struct {
    Result int32
    Size int64
}
