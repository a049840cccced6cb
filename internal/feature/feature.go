// Package feature derives the platform-facing feature and stream descriptors
// from template configs.
package feature

import (
	"github.com/google/go-cmp/cmp"

	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/registry"
	"github.com/conneroisu/pages/internal/types"
	"github.com/conneroisu/pages/pkg/pages"
)

// ConvertTemplateConfigToFeatureConfig maps a template config to its feature.
// Templates bound to a stream become entity page sets, all others static pages.
func ConvertTemplateConfigToFeatureConfig(cfg pages.TemplateConfig) types.FeatureConfig {
	streamID := cfg.StreamID
	if cfg.Stream != nil {
		streamID = cfg.Stream.ID
	}

	feature := types.FeatureConfig{
		Name:                    cfg.Name,
		StreamID:                streamID,
		TemplateType:            types.TemplateTypeJS,
		AlternateLanguageFields: cfg.AlternateLanguageFields,
	}
	if streamID != "" {
		feature.EntityPageSet = &struct{}{}
	} else {
		feature.StaticPage = &struct{}{}
	}

	return feature
}

// ConvertTemplateConfigToStreamConfig returns the stream descriptor of a
// template, or nil when the template declares no stream.
func ConvertTemplateConfigToStreamConfig(cfg pages.TemplateConfig) *types.StreamConfig {
	if cfg.Stream == nil {
		return nil
	}

	return &types.StreamConfig{
		ID:           cfg.Stream.ID,
		Filter:       cfg.Stream.Filter,
		Fields:       cfg.Stream.Fields,
		Localization: cfg.Stream.Localization,
		Transform:    cfg.Stream.Transform,
		Source:       types.StreamSourceKG,
		Destination:  types.StreamDestinationPages,
	}
}

// GetTemplatesConfig produces one feature per template, in registry order,
// and the deduplicated streams in first-seen order.
func GetTemplatesConfig(templates *registry.TemplateRegistry) (*types.FeaturesConfig, error) {
	features := make([]types.FeatureConfig, 0, templates.Count())
	streams := make([]types.StreamConfig, 0)

	for _, tmpl := range templates.All() {
		cfg := tmpl.Config()
		features = append(features, ConvertTemplateConfigToFeatureConfig(cfg))

		streamConfig := ConvertTemplateConfigToStreamConfig(cfg)
		if streamConfig == nil {
			continue
		}

		next, err := PushStreamConfigIfValid(streams, *streamConfig)
		if err != nil {
			return nil, err
		}
		streams = next
	}

	return &types.FeaturesConfig{Features: features, Streams: streams}, nil
}

// PushStreamConfigIfValid appends streamConfig unless a stream with the same
// id exists. Identical redeclarations are skipped; differing ones conflict.
func PushStreamConfigIfValid(streams []types.StreamConfig, streamConfig types.StreamConfig) ([]types.StreamConfig, error) {
	for _, existing := range streams {
		if existing.ID != streamConfig.ID {
			continue
		}
		if cmp.Equal(existing, streamConfig) {
			return streams, nil
		}
		return streams, errors.ErrStreamConflict(streamConfig.ID)
	}

	return append(streams, streamConfig), nil
}
