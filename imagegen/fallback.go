package imagegen

import (
	"context"
	"fmt"
	"log"
)

// Fallback tries the primary backend first and falls through to the
// secondary. Both errors are reported when neither produces an image.
type Fallback struct {
	Primary   Generator
	Secondary Generator
}

func (f *Fallback) GenerateImage(ctx context.Context, prompt, outPath string) error {
	primaryErr := f.Primary.GenerateImage(ctx, prompt, outPath)
	if primaryErr == nil {
		return nil
	}
	log.Printf("⚠️ Primary image backend failed, trying fallback: %v", primaryErr)

	if secondaryErr := f.Secondary.GenerateImage(ctx, prompt, outPath); secondaryErr != nil {
		return fmt.Errorf("all image backends failed: primary: %v; fallback: %v", primaryErr, secondaryErr)
	}
	return nil
}
