package supercollider

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/trackstudio/internal/playback"
	"github.com/schollz/trackstudio/internal/types"
)

// Sender delivers OSC packets; *osc.Client satisfies it.
type Sender interface {
	Send(packet osc.Packet) error
}

// Player drives layer buffers on a SuperCollider server. The server answers
// "/layer_done <handle>" when a buffer plays to its end.
type Player struct {
	client Sender

	mu      sync.Mutex
	loaded  map[playback.Handle]types.SourceRef
	nextSub int
	subs    map[playback.Handle]map[int]func()
}

var _ playback.Player = (*Player)(nil)

func NewPlayer(client Sender) *Player {
	return &Player{
		client: client,
		loaded: make(map[playback.Handle]types.SourceRef),
		subs:   make(map[playback.Handle]map[int]func()),
	}
}

// Register adds the completion handler to the dispatcher the OSC server uses.
func (p *Player) Register(d *osc.StandardDispatcher) error {
	return d.AddMsgHandler("/layer_done", p.handleDone)
}

func (p *Player) send(addr string, args ...interface{}) error {
	msg := osc.NewMessage(addr)
	for _, a := range args {
		msg.Append(a)
	}
	if err := p.client.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", addr, err)
	}
	return nil
}

func (p *Player) known(h playback.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.loaded[h]; !ok {
		return fmt.Errorf("unknown handle %s", h)
	}
	return nil
}

func (p *Player) Load(ctx context.Context, ref types.SourceRef) (playback.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(string(ref)); err != nil {
		return "", err
	}
	h := playback.Handle(uuid.NewString())
	if err := p.send("/layer_load", string(h), string(ref)); err != nil {
		return "", err
	}
	p.mu.Lock()
	p.loaded[h] = ref
	p.mu.Unlock()
	log.Printf("Loaded %s into SuperCollider as %s", ref, h)
	return h, nil
}

func (p *Player) Play(_ context.Context, h playback.Handle, gain float64) error {
	if err := p.known(h); err != nil {
		return err
	}
	return p.send("/layer_play", string(h), float32(gain))
}

func (p *Player) SetGain(h playback.Handle, gain float64) error {
	if err := p.known(h); err != nil {
		return err
	}
	return p.send("/layer_gain", string(h), float32(gain))
}

func (p *Player) Stop(_ context.Context, h playback.Handle) error {
	if err := p.known(h); err != nil {
		return err
	}
	return p.send("/layer_stop", string(h))
}

func (p *Player) Unload(_ context.Context, h playback.Handle) error {
	p.mu.Lock()
	_, ok := p.loaded[h]
	delete(p.loaded, h)
	delete(p.subs, h)
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown handle %s", h)
	}
	return p.send("/layer_free", string(h))
}

func (p *Player) OnComplete(h playback.Handle, fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[h] == nil {
		p.subs[h] = make(map[int]func())
	}
	id := p.nextSub
	p.nextSub++
	p.subs[h][id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs[h], id)
	}
}

func (p *Player) handleDone(msg *osc.Message) {
	if len(msg.Arguments) == 0 {
		return
	}
	h, ok := msg.Arguments[0].(string)
	if !ok {
		log.Printf("Ignoring %s with argument %v", msg.Address, msg.Arguments[0])
		return
	}
	p.mu.Lock()
	var fns []func()
	for _, fn := range p.subs[playback.Handle(h)] {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
