package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"jalaliflow/internal/caldate"
)

// ActionKind tags the variant held by an Action.
type ActionKind string

const (
	KindInvocation ActionKind = "invocation"
	KindInline     ActionKind = "inline"
)

// Invocation names a handler registered with the runner.
type Invocation struct {
	Target string
	Method string
	Args   []string
}

// InlinePayload carries raw bytes for the runner's inline handler.
type InlinePayload struct {
	Data []byte
}

// Action is a tagged variant: exactly one of Invocation or Inline is set.
type Action struct {
	Invocation *Invocation
	Inline     *InlinePayload
}

// Invoke builds an invocation action.
func Invoke(target, method string, args ...string) Action {
	return Action{Invocation: &Invocation{Target: target, Method: method, Args: args}}
}

// Inline builds an inline-payload action.
func Inline(data []byte) Action {
	return Action{Inline: &InlinePayload{Data: data}}
}

// Kind returns the variant tag, or "" for an empty action.
func (a Action) Kind() ActionKind {
	switch {
	case a.Invocation != nil:
		return KindInvocation
	case a.Inline != nil:
		return KindInline
	}
	return ""
}

// Validate checks that exactly one variant is set and carries what the
// runner needs to dispatch it.
func (a Action) Validate() error {
	if a.Invocation != nil && a.Inline != nil {
		return fmt.Errorf("%w: action has both invocation and inline payload", caldate.ErrInvalidArgument)
	}
	switch {
	case a.Invocation != nil:
		if strings.TrimSpace(a.Invocation.Target) == "" || strings.TrimSpace(a.Invocation.Method) == "" {
			return fmt.Errorf("%w: invocation needs target and method", caldate.ErrInvalidArgument)
		}
	case a.Inline != nil:
		if len(a.Inline.Data) == 0 {
			return fmt.Errorf("%w: empty inline payload", caldate.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: empty action", caldate.ErrInvalidArgument)
	}
	return nil
}

func (a Action) String() string {
	switch {
	case a.Invocation != nil:
		return a.Invocation.Target + "." + a.Invocation.Method
	case a.Inline != nil:
		return fmt.Sprintf("inline(%d bytes)", len(a.Inline.Data))
	}
	return "none"
}

// actionWire is the flat serialized shape shared by JSON and YAML.
type actionWire struct {
	Kind   ActionKind `json:"kind" yaml:"kind"`
	Target string     `json:"target,omitempty" yaml:"target,omitempty"`
	Method string     `json:"method,omitempty" yaml:"method,omitempty"`
	Args   []string   `json:"args,omitempty" yaml:"args,omitempty"`
	Data   string     `json:"data,omitempty" yaml:"data,omitempty"` // base64
}

func (a Action) wire() actionWire {
	w := actionWire{Kind: a.Kind()}
	switch {
	case a.Invocation != nil:
		w.Target = a.Invocation.Target
		w.Method = a.Invocation.Method
		w.Args = a.Invocation.Args
	case a.Inline != nil:
		w.Data = base64.StdEncoding.EncodeToString(a.Inline.Data)
	}
	return w
}

func (w actionWire) action() (Action, error) {
	switch w.Kind {
	case KindInvocation:
		return Invoke(w.Target, w.Method, w.Args...), nil
	case KindInline:
		data, err := base64.StdEncoding.DecodeString(w.Data)
		if err != nil {
			return Action{}, fmt.Errorf("%w: inline payload: %v", caldate.ErrInvalidArgument, err)
		}
		return Inline(data), nil
	case "":
		return Action{}, nil
	}
	return Action{}, fmt.Errorf("%w: unknown action kind %q", caldate.ErrInvalidArgument, w.Kind)
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.wire())
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var w actionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := w.action()
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Action) MarshalYAML() (any, error) {
	return a.wire(), nil
}

func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	var w actionWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	v, err := w.action()
	if err != nil {
		return err
	}
	*a = v
	return nil
}
