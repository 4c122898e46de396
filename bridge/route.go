package bridge

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/protocol"
	"github.com/wippyai/component-runtime/runtime"
)

// router handles one message on the bridge loop.
type router struct {
	b    *Bridge
	from string
}

// HandleRender mounts the node, then instantiates new children and
// forwards props to known ones. Children missing from the manifest are
// torn down. Renders from senders that are not registered are ignored.
func (r router) HandleRender(m *protocol.Render) error {
	b := r.b
	b.mu.Lock()
	_, known := b.entries[r.from]
	b.mu.Unlock()
	if !known {
		b.logger.Debug("render from unknown component", zap.String("component", r.from))
		return nil
	}
	if err := b.surface.Mount(m.ComponentID, m.Node); err != nil {
		b.logger.Warn("surface rejected render", zap.String("component", m.ComponentID), zap.Error(err))
	}

	listed := make(map[string]bool, len(m.ChildComponents))
	for _, child := range m.ChildComponents {
		listed[child.ComponentID] = true
		b.reconcile(m.ComponentID, child)
	}
	b.prune(m.ComponentID, listed)
	return nil
}

func (b *Bridge) reconcile(parent string, child protocol.ChildMetadata) {
	b.mu.Lock()
	if e, ok := b.entries[child.ComponentID]; ok {
		e.props = child.Props
		bnd := e.boundary
		b.mu.Unlock()
		if bnd != nil {
			if err := bnd.Post(&protocol.Update{ComponentID: child.ComponentID, Props: child.Props}); err != nil {
				b.logger.Debug("update not delivered", zap.String("component", child.ComponentID), zap.Error(err))
			}
		}
		return
	}

	id, err := component.ParseID(child.ComponentID)
	if err != nil {
		b.mu.Unlock()
		b.logger.Warn("child with malformed id", zap.String("component", child.ComponentID), zap.Error(err))
		return
	}
	e := &entry{id: id, trust: child.Trust, props: child.Props, parent: parent}
	b.entries[child.ComponentID] = e
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		_ = b.instantiate(b.ctx, child.ComponentID, e)
	}()
}

// prune removes the children of parent that are not listed, with their
// descendants.
func (b *Bridge) prune(parent string, listed map[string]bool) {
	b.mu.Lock()
	var gone []string
	queue := []string{parent}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for id, e := range b.entries {
			if e.parent != p || (p == parent && listed[id]) {
				continue
			}
			gone = append(gone, id)
			queue = append(queue, id)
		}
	}
	var closing []*runtime.Boundary
	for _, id := range gone {
		if e := b.entries[id]; e.boundary != nil && !e.starting {
			closing = append(closing, e.boundary)
		}
		delete(b.entries, id)
	}
	b.mu.Unlock()

	for _, id := range gone {
		_ = b.surface.Unmount(id)
		b.logger.Debug("boundary unmounted", zap.String("component", id))
	}
	if len(closing) > 0 {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for _, bnd := range closing {
				_ = bnd.Close()
			}
		}()
	}
}

func (r router) HandleUpdate(m *protocol.Update) error {
	return r.b.deliver(m.ComponentID, m)
}

// HandleCallbackInvocation sends the invocation to the boundary owning the
// method, or to the host method table for the NoContainer target.
func (r router) HandleCallbackInvocation(m *protocol.CallbackInvocation) error {
	b := r.b
	if m.Originator == "" {
		m.Originator = r.from
	}
	if m.TargetID == protocol.NoContainer {
		b.callHost(m)
		return nil
	}
	target := m.TargetID
	if target == "" {
		target = protocol.RouteOf(m.Method)
	}
	if err := b.deliver(target, m); err != nil {
		b.reply(m, nil, err)
		return err
	}
	return nil
}

func (r router) HandleCallbackResponse(m *protocol.CallbackResponse) error {
	return r.b.deliver(m.TargetID, m)
}

func (r router) HandleDOMCallback(m *protocol.DOMCallback) error {
	return r.b.deliver(protocol.RouteOf(m.Method), m)
}

func (b *Bridge) deliver(target string, m protocol.Message) error {
	bnd, ok := b.Boundary(target)
	if !ok {
		return errors.NotFound(errors.PhaseMount, "boundary", target)
	}
	return bnd.Post(m)
}

// callHost runs a host method off the loop and answers the originator.
func (b *Bridge) callHost(m *protocol.CallbackInvocation) {
	caller := runtime.Caller{ComponentID: m.Originator}
	b.mu.Lock()
	if e, ok := b.entries[m.Originator]; ok {
		caller.Path = e.id.Path
	}
	b.mu.Unlock()
	if caller.Path == "" {
		if id, err := component.ParseID(m.Originator); err == nil {
			caller.Path = id.Path
		}
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		v, err := b.host.Invoke(b.ctx, caller, m.Method, m.Args)
		if err != nil {
			b.logger.Warn("host method failed",
				zap.String("method", m.Method),
				zap.String("component", m.Originator),
				zap.String("request_id", m.RequestID),
				zap.Error(err))
		}
		b.reply(m, v, err)
	}()
}

// reply answers m unless the caller asked for no response.
func (b *Bridge) reply(m *protocol.CallbackInvocation, v any, err error) {
	if m.RequestID == "" {
		return
	}
	var res protocol.Result
	if err == nil {
		res.Value, err = wireValue(v)
	}
	if err != nil {
		res = protocol.Result{Error: &protocol.ErrorValue{Message: err.Error()}}
	}
	_ = b.inbox.Post(envelope{
		from: protocol.NoContainer,
		msg:  &protocol.CallbackResponse{TargetID: m.Originator, RequestID: m.RequestID, Result: res},
	})
}

// wireValue reshapes a host result into plain JSON values.
func wireValue(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64, int, int64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "encode host result")
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "encode host result")
	}
	return out, nil
}
