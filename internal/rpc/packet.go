// Package rpc defines the minimal ONC-RPC packet contract the NFS
// core consumes. The transport (framing over UDP/TCP, auth_sys
// credentials, the packet pool itself, program/version routing) lives
// outside this module; this package only describes the shape the
// transport must hand the dispatcher.
package rpc

import "bytes"

// Pool allocates response buffers for handlers that project a reply
// larger than the request packet (READ, READDIR(PLUS), CREATE, MKDIR,
// RENAME, READLINK). The transport owns the concrete pool; the core
// only ever asks it for bytes.
type Pool interface {
	// Get returns a buffer with at least the requested capacity.
	Get(size int) []byte
}

// Call is the inbound view of an ONC-RPC request: a read cursor
// positioned at the start of the procedure's argument list, plus the
// metadata handlers need (procedure number, transaction id, auth
// flavor/credentials already parsed by the transport).
type Call struct {
	XID        uint32
	Procedure  uint32
	AuthFlavor uint32
	UID        *uint32
	GID        *uint32
	GIDs       []uint32

	// Args is a read cursor over the XDR-encoded argument list. It is a
	// distinct view from Reply -- reading from Args never mutates
	// anything the response will be built from.
	Args *bytes.Reader
}

// Reply is the outbound view returned by a handler: a write cursor over
// a buffer of its own, either a fresh one or one backed by a buffer
// obtained from the Pool. It never writes into the request's buffer.
// Handlers write into Buf and set Length explicitly; they never read
// from it.
type Reply struct {
	Buf    *bytes.Buffer
	Length int
}

// NewReply starts a fresh, empty reply buffer. Callers that need to
// grow past their request packet replace Buf with one backed by a
// buffer from Pool.Get.
func NewReply() *Reply {
	return &Reply{Buf: &bytes.Buffer{}}
}

// Bytes returns the packed reply truncated to Length.
func (r *Reply) Bytes() []byte {
	b := r.Buf.Bytes()
	if r.Length > 0 && r.Length < len(b) {
		return b[:r.Length]
	}
	return b
}

// Finish records the final encoded length of the reply.
func (r *Reply) Finish() {
	r.Length = r.Buf.Len()
}
