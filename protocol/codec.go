package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/wippyai/component-runtime/errors"
)

// Encode serializes m with its type tag.
func Encode(m Message) ([]byte, error) {
	var v any
	switch msg := m.(type) {
	case *Render:
		v = struct {
			Type Type `json:"type"`
			*Render
		}{TypeRender, msg}
	case *Update:
		v = struct {
			Type Type `json:"type"`
			*Update
		}{TypeUpdate, msg}
	case *CallbackInvocation:
		v = struct {
			Type Type `json:"type"`
			*CallbackInvocation
		}{TypeCallbackInvocation, msg}
	case *CallbackResponse:
		v = struct {
			Type Type `json:"type"`
			*CallbackResponse
		}{TypeCallbackResponse, msg}
	case *DOMCallback:
		v = struct {
			Type Type `json:"type"`
			*DOMCallback
		}{TypeDOMCallback, msg}
	default:
		return nil, unreachable(m)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProtocol, errors.KindInvalidData, err, fmt.Sprintf("encode %s", m.Type()))
	}
	return data, nil
}

// Decode parses a tagged message. Unknown tags are rejected.
func Decode(data []byte) (Message, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(errors.PhaseProtocol, errors.KindInvalidData, err, "decode message header")
	}

	var m Message
	switch head.Type {
	case TypeRender:
		m = &Render{}
	case TypeUpdate:
		m = &Update{}
	case TypeCallbackInvocation:
		m = &CallbackInvocation{}
	case TypeCallbackResponse:
		m = &CallbackResponse{}
	case TypeDOMCallback:
		m = &DOMCallback{}
	default:
		return nil, errors.UnknownMessage(string(head.Type))
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(errors.PhaseProtocol, errors.KindInvalidData, err, fmt.Sprintf("decode %s", head.Type))
	}
	return m, nil
}

// unreachable reports a Message implementation outside the closed set. It
// panics in builds tagged componentdev.
func unreachable(m Message) error {
	err := errors.UnknownMessage(fmt.Sprintf("%T", m))
	if strict {
		panic(err)
	}
	return err
}
