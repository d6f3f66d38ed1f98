package config

import (
	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/model"
)

// Registry translates model settings into a registry configuration.
// Artifacts with an empty path are not loaded.
func (c *Config) Registry() model.RegistryConfig {
	refs := []model.ArtifactRef{
		{FeatureSet: domain.TemperatureFeatures, Kind: model.KindLSTM, Path: c.TempLSTMPath},
		{FeatureSet: domain.TemperatureFeatures, Kind: model.KindCNN, Path: c.TempCNNPath},
		{FeatureSet: domain.PrecipitationFeatures, Kind: model.KindCNN, Path: c.PrecipCNNPath},
	}
	rc := model.RegistryConfig{
		ARCoefficients: c.ARCoefficients,
		Fallback:       c.ModelFallback,
	}
	for _, r := range refs {
		if r.Path != "" {
			rc.Artifacts = append(rc.Artifacts, r)
		}
	}
	return rc
}
