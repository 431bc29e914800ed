package mqtt

import (
	"context"
	"encoding/json"
	"io"
)

// Meta describes the bridged peer, published retained on <peer>/meta
// and cleared by the will when the bridge goes away.
type Meta struct {
	Peer        string `json:"peer"`
	Channel     uint8  `json:"channel"`
	Transformed bool   `json:"transformed"`
	Host        string `json:"host,omitempty"`
}

// Upstream exchanges packets of a peer over MQTT:
// events are published on <peer>/rx, packets to transmit
// are subscribed from <peer>/tx.
type Upstream struct {
	Queue *Queue
	Meta  Meta

	metaJSON []byte
	packetCh chan []byte
	done     chan struct{}
}

const maxClientIDLen = 23

// NewUpstream creates an Upstream.
func NewUpstream(brokerURL string, meta Meta) (*Upstream, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	u := &Upstream{
		Meta:     meta,
		metaJSON: metaJSON,
		packetCh: make(chan []byte, 1),
		done:     make(chan struct{}),
	}
	opts.SetBinaryWill(topicPrefix+u.topic("meta"), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID(ClientID(meta))
	}
	u.Queue = NewQueue(opts, topicPrefix)
	u.Queue.OnConnect = func(q *Queue) {
		q.PubWith(u.topic("meta"), u.metaJSON, 1, true)
	}
	return u, nil
}

// ClientID derives a client id from peer and host within 23 characters.
func ClientID(meta Meta) string {
	id := "uart:" + meta.Peer
	if meta.Host != "" {
		id += ":" + meta.Host
	}
	if len(id) > maxClientIDLen {
		id = id[:maxClientIDLen]
	}
	return id
}

// topic is relative to the queue prefix.
func (u *Upstream) topic(name string) string {
	return u.Meta.Peer + "/" + name
}

// ReadPacket implements PacketReader.
func (u *Upstream) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-u.packetCh:
		return pkt, nil
	case <-u.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (u *Upstream) WritePacket(pkt []byte) error {
	token := u.Queue.Pub(u.topic("rx"), pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (u *Upstream) Run(ctx context.Context) error {
	defer close(u.done)
	sub := u.Queue.Sub(u.topic("tx"), u.handleMsg)
	defer sub.Close()
	token := u.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	u.Queue.PubWith(u.topic("meta"), nil, 1, true).Wait()
	u.Queue.Close()
	return ctx.Err()
}

func (u *Upstream) handleMsg(_ string, payload []byte) {
	select {
	case u.packetCh <- payload:
	case <-u.done:
	}
}
