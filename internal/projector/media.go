package projector

import (
	"context"
	"fmt"
	"strings"

	"github.com/headwaycms/headway/internal/content"
)

// ProjectMedia builds the full media descriptor for an attachment id, nil
// when it does not exist. Block projection uses it for embedded media.
func (p *Projector) ProjectMedia(ctx context.Context, id, acfDepth int) map[string]any {
	return p.projectMedia(ctx, id, acfDepth)
}

// projectMedia builds the flat media descriptor for an attachment id, nil
// when the id is empty or the store has no record. The responsive source-set
// and sizes strings come from the registered renditions, with a single-entry
// fallback when none exist.
func (p *Projector) projectMedia(ctx context.Context, id, acfDepth int) map[string]any {
	if id == 0 {
		return nil
	}
	rec, err := p.store.Media(ctx, id)
	if err != nil {
		return nil
	}

	data := map[string]any{
		"id":          rec.ID,
		"src":         rec.URL,
		"width":       rec.Width,
		"height":      rec.Height,
		"alt":         rec.Alt,
		"caption":     rec.Caption,
		"title":       rec.Title,
		"description": rec.Description,
		"mime_type":   rec.MimeType,
	}
	if rec.InlineData != "" {
		data["data"] = rec.InlineData
	}

	srcset, sizes := responsiveStrings(rec)
	data["srcset"] = srcset
	data["sizes"] = sizes

	if rec.Meta != nil {
		data["meta"] = rec.Meta
	}
	if acf := p.flattenObjectFields(ctx, rec.ID, acfDepth); acf != nil {
		data["acf"] = acf
	}
	return data
}

func responsiveStrings(rec *content.MediaRecord) (srcset, sizes string) {
	if len(rec.Sizes) == 0 {
		return fmt.Sprintf("%s %dw", rec.URL, rec.Width), fmt.Sprintf("%dpx", rec.Width)
	}
	entries := make([]string, 0, len(rec.Sizes)+1)
	for _, s := range rec.Sizes {
		entries = append(entries, fmt.Sprintf("%s %dw", s.URL, s.Width))
	}
	entries = append(entries, fmt.Sprintf("%s %dw", rec.URL, rec.Width))
	return strings.Join(entries, ", "),
		fmt.Sprintf("(max-width: %dpx) 100vw, %dpx", rec.Width, rec.Width)
}

// projectGalleryItem dispatches one gallery attachment by mime-type family:
// images get the full media descriptor, videos a playback payload, anything
// else a generic attachment payload with the raw metadata.
func (p *Projector) projectGalleryItem(ctx context.Context, id, acfDepth int) map[string]any {
	rec, err := p.store.Media(ctx, id)
	if err != nil {
		return nil
	}
	switch {
	case strings.HasPrefix(rec.MimeType, "image/"):
		return p.projectMedia(ctx, id, acfDepth)
	case strings.HasPrefix(rec.MimeType, "video/"):
		return map[string]any{
			"id":        rec.ID,
			"src":       rec.URL,
			"width":     rec.Width,
			"height":    rec.Height,
			"title":     rec.Title,
			"mime_type": rec.MimeType,
		}
	default:
		data := map[string]any{
			"id":        rec.ID,
			"src":       rec.URL,
			"title":     rec.Title,
			"mime_type": rec.MimeType,
		}
		if rec.Meta != nil {
			data["meta"] = rec.Meta
		}
		return data
	}
}
