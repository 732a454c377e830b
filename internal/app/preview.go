package app

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/scoreturner/internal/capture"
)

// Preview keeps the most recent frame as JPEG for the camera preview. Frames
// are only encoded while someone is watching.
type Preview struct {
	mu       sync.Mutex
	cond     *sync.Cond
	jpeg     []byte
	seq      uint64
	watchers int
	closed   bool
}

// NewPreview creates an empty preview buffer.
func NewPreview() *Preview {
	p := &Preview{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Watch registers a viewer. The returned function unregisters it.
func (p *Preview) Watch() (stop func()) {
	p.mu.Lock()
	p.watchers++
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.watchers--
			p.mu.Unlock()
			p.cond.Broadcast()
		})
	}
}

// Watching reports whether any viewer is registered.
func (p *Preview) Watching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watchers > 0
}

// Offer encodes frame when a viewer is registered.
func (p *Preview) Offer(frame *capture.Frame) {
	if frame == nil || frame.Mat == nil || frame.Mat.Empty() || !p.Watching() {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame.Mat)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.Publish(data)
}

// Publish stores an encoded frame and wakes waiting viewers.
func (p *Preview) Publish(jpeg []byte) {
	p.mu.Lock()
	p.jpeg = jpeg
	p.seq++
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Latest returns the newest frame and its sequence number. Sequence 0 means
// no frame has been published.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq
}

// Next blocks until a frame newer than after is published, or until done is
// closed. ok is false when it returned without a new frame.
func (p *Preview) Next(after uint64, done <-chan struct{}) (jpeg []byte, seq uint64, ok bool) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-done:
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		case <-stop:
		}
	}()

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.seq <= after && !p.closed {
		select {
		case <-done:
			return nil, after, false
		default:
		}
		p.cond.Wait()
	}
	if p.seq <= after {
		return nil, after, false
	}
	return p.jpeg, p.seq, true
}

// Close wakes all viewers. Later calls to Next return immediately.
func (p *Preview) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
}
