// Package bridge connects a peer's Endpoint to upstream packet transports.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/uart.go/pkg/bridge/msgs"
	fx "github.com/robotalks/uart.go/pkg/framework"
	"github.com/robotalks/uart.go/pkg/uart"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
// An upstream receives encoded msgs.PacketEvent and yields raw packets
// to transmit. If it also implements framework.Runnable, it runs along
// with the bridge.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Stats counts bridged packets.
type Stats struct {
	Received    uint64
	Transmitted uint64
	LineErrors  uint64
	Truncated   uint64
}

// Bridge forwards packets between a peer and upstreams.
type Bridge struct {
	Peer      string
	Endpoint  *uart.Endpoint
	Upstreams []PacketReadWriter

	sendLock sync.Mutex
	counters struct {
		received, transmitted, lineErrors, truncated atomic.Uint64
	}
}

// New creates a Bridge.
func New(peer string, ep *uart.Endpoint, upstreams ...PacketReadWriter) *Bridge {
	return &Bridge{Peer: peer, Endpoint: ep, Upstreams: upstreams}
}

// Stats returns a snapshot of counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Received:    b.counters.received.Load(),
		Transmitted: b.counters.transmitted.Load(),
		LineErrors:  b.counters.lineErrors.Load(),
		Truncated:   b.counters.truncated.Load(),
	}
}

// Run implements Runnable.
// Receiving from the port can't be interrupted: the receive loop checks
// ctx between packets and is left blocked when Run returns.
func (b *Bridge) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	defer runner.Stop()
	for n, up := range b.Upstreams {
		up := up
		if r, ok := up.(fx.Runnable); ok {
			goUntilFailure(runner, fmt.Sprintf("upstream[%d]", n), r.Run)
		}
		goUntilFailure(runner, fmt.Sprintf("tx[%d]", n), func(ctx context.Context) error {
			return b.forward(ctx, up)
		})
	}

	rxCh := make(chan error, 1)
	go func() {
		rxCh <- b.receive(runner.Context)
	}()

	var errs fx.AggregatedError
	select {
	case <-runner.Context.Done():
	case err := <-rxCh:
		errs.Add(err)
		runner.Stop()
	}
	errs.Add(runner.Wait())
	return errs.Aggregate()
}

// goUntilFailure stops all runnables once fn fails.
func goUntilFailure(runner *fx.Runner, name string, fn func(context.Context) error) {
	runner.Go(fx.NamedFunc(name, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			runner.Stop()
		}
		return err
	}))
}

func (b *Bridge) receive(ctx context.Context) (err error) {
	defer port.RecoverIOError(&err)
	for ctx.Err() == nil {
		pkt := b.Endpoint.Recv()
		if ctx.Err() != nil {
			glog.V(2).Infof("%s: dropped packet of %d bytes after stop", b.Peer, pkt.Length)
			break
		}
		b.count(pkt)
		data, err := msgs.NewPacketEvent(b.Peer, b.Endpoint.Config.Channel(), pkt).Encode()
		if err != nil {
			return err
		}
		for _, up := range b.Upstreams {
			if err := up.WritePacket(data); err != nil {
				glog.Warningf("%s: upstream write error: %v", b.Peer, err)
			}
		}
	}
	return nil
}

func (b *Bridge) count(pkt *uart.Packet) {
	b.counters.received.Add(1)
	if pkt.Errors != 0 {
		b.counters.lineErrors.Add(1)
		glog.Warningf("%s: packet with line errors: %s", b.Peer, pkt.Errors)
	}
	if pkt.Truncated() {
		b.counters.truncated.Add(1)
		glog.Warningf("%s: packet of %d bytes truncated to %d", b.Peer, pkt.Length, len(pkt.Data))
	}
}

// forward transmits packets read from up. A read blocked in up doesn't
// delay the return on cancellation.
func (b *Bridge) forward(ctx context.Context, up PacketReader) error {
	pktCh, errCh := make(chan []byte), make(chan error, 1)
	go func() {
		for {
			pkt, err := up.ReadPacket()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case pktCh <- pkt:
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case pkt := <-pktCh:
			if err := b.Send(pkt); err != nil {
				return err
			}
		case err := <-errCh:
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Send transmits a packet to the peer. Transmits from all upstreams are
// serialized. A failed device is returned as *port.IOError.
func (b *Bridge) Send(pkt []byte) (err error) {
	defer port.RecoverIOError(&err)
	b.sendLock.Lock()
	defer b.sendLock.Unlock()
	b.Endpoint.Send(pkt)
	b.counters.transmitted.Add(1)
	return nil
}
