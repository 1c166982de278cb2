package inject

import (
	"context"

	"github.com/atotto/clipboard"
)

type pasteInjector struct {
	preferPaste bool
}

// New creates a new text injector
func New(preferPaste bool) Injector {
	return &pasteInjector{preferPaste: preferPaste}
}

// Paste puts text on the clipboard and sends the platform paste keystroke.
func (p *pasteInjector) Paste(ctx context.Context, text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return err
	}
	return platformPaste(ctx)
}

// Type injects text using keyboard simulation
func (p *pasteInjector) Type(ctx context.Context, text string) error {
	return platformType(ctx, text)
}

// PasteOrType tries paste first, falls back to type if needed
func (p *pasteInjector) PasteOrType(ctx context.Context, text string) error {
	if p.preferPaste {
		if err := p.Paste(ctx, text); err == nil {
			return nil
		}
	}
	return p.Type(ctx, text)
}
