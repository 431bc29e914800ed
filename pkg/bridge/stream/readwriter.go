// Package stream carries bridged packets over a byte stream.
package stream

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// MaxPacket limits the size of a packet read from the stream.
const MaxPacket = 1 << 20

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) length.
type ReadWriter struct {
	Reader io.Reader
	Writer io.Writer

	writeLock sync.Mutex
}

// New creates a ReadWriter, e.g. over stdin and stdout.
func New(r io.Reader, w io.Writer) *ReadWriter {
	return &ReadWriter{Reader: r, Writer: w}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.Reader, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacket {
		return nil, fmt.Errorf("packet of %d bytes exceeds %d", size, MaxPacket)
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p.Reader, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	_, err := p.Writer.Write(buf)
	return err
}
