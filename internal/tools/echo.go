package tools

import "context"

// EchoTool returns its argument bag unchanged. Useful as a connectivity and
// dispatch check.
type EchoTool struct{}

func (t *EchoTool) Name() string { return "echo" }

func (t *EchoTool) Description() string {
	return "Returns the provided arguments unchanged."
}

func (t *EchoTool) Execute(_ context.Context, args map[string]any) Result {
	if args == nil {
		args = map[string]any{}
	}
	return OK(args)
}
