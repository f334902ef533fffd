package assets

import "fmt"

// destroyer is implemented by payloads that own GPU objects.
type destroyer interface {
	Destroy()
}

// grave is a payload waiting for the GPU to finish with it.
type grave struct {
	payload any
	frame   uint64
}

// graveyard delays destruction of superseded payloads until no in-flight
// frame can still reference them. Only the owning goroutine touches it.
type graveyard struct {
	delay   uint64
	entries []grave
}

// bury schedules payload for destruction delay ticks after frame.
// Payloads without a Destroy method are dropped immediately.
func (g *graveyard) bury(payload any, frame uint64) {
	if _, ok := payload.(destroyer); !ok {
		return
	}
	g.entries = append(g.entries, grave{payload: payload, frame: frame})
}

// collect destroys every payload buried at least delay ticks before frame
// and returns how many were destroyed.
func (g *graveyard) collect(frame uint64) int {
	n := 0
	kept := g.entries[:0]
	for _, e := range g.entries {
		if e.frame+g.delay <= frame {
			destroyPayload(e.payload)
			n++
			continue
		}
		kept = append(kept, e)
	}
	clear(g.entries[len(kept):])
	g.entries = kept
	return n
}

// flush destroys everything regardless of age.
func (g *graveyard) flush() int {
	n := len(g.entries)
	for _, e := range g.entries {
		destroyPayload(e.payload)
	}
	g.entries = nil
	return n
}

func (g *graveyard) len() int { return len(g.entries) }

// destroyPayload calls Destroy on payloads that have one, logging panics
// rather than letting a broken payload take down the owning goroutine.
func destroyPayload(payload any) {
	d, ok := payload.(destroyer)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slogger().Warn("assets: payload destroy panicked", "payload", fmt.Sprintf("%T", payload), "panic", r)
		}
	}()
	d.Destroy()
}
