// Package generation talks to the text generation service.
package generation

import "context"

// Generator produces text for a filled content request under the given
// instructions.
type Generator interface {
	Generate(ctx context.Context, content, instructions string) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, content, instructions string) (string, error)

func (f Func) Generate(ctx context.Context, content, instructions string) (string, error) {
	return f(ctx, content, instructions)
}
