package model

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

type stubPredictor struct {
	name string
	out  domain.FeatureVector
}

func (s stubPredictor) Name() string { return s.name }

func (s stubPredictor) Predict(domain.Window) (domain.FeatureVector, error) {
	return s.out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_Resolve(t *testing.T) {
	temp := domain.TemperatureFeatures.Name
	reg := NewRegistry(nil, []string{KindLSTM, KindCNN, domain.ModelAR},
		Entry{FeatureSet: temp, Predictor: stubPredictor{name: KindCNN}},
		Entry{FeatureSet: temp, Predictor: stubPredictor{name: domain.ModelAR}},
	)

	t.Run("requested kind present", func(t *testing.T) {
		p, err := reg.Resolve(temp, KindCNN)
		require.NoError(t, err)
		assert.Equal(t, KindCNN, p.Name())
	})

	t.Run("requested kind falls back along chain", func(t *testing.T) {
		p, err := reg.Resolve(temp, KindLSTM)
		require.NoError(t, err)
		assert.Equal(t, KindCNN, p.Name())
	})

	t.Run("default uses chain order", func(t *testing.T) {
		p, err := reg.Resolve(temp, "")
		require.NoError(t, err)
		assert.Equal(t, KindCNN, p.Name())
	})

	t.Run("unknown feature set", func(t *testing.T) {
		_, err := reg.Resolve("humidity", "")
		var missing *domain.ModelArtifactMissingError
		require.ErrorAs(t, err, &missing)
	})

	assert.Equal(t, []string{KindCNN, domain.ModelAR}, reg.Available(temp))
}

func TestRegistry_NoFallback(t *testing.T) {
	temp := domain.TemperatureFeatures.Name
	reg := NewRegistry(nil, nil, Entry{FeatureSet: temp, Predictor: stubPredictor{name: KindCNN}})

	_, err := reg.Resolve(temp, KindLSTM)
	require.Error(t, err)
	assert.Equal(t, domain.KindModelUnavailable, domain.ErrorKind(err))

	p, err := reg.Resolve(temp, "")
	require.NoError(t, err)
	assert.Equal(t, KindCNN, p.Name())
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	cnn := Architecture{Kind: KindCNN, InputDim: 35, OutputDim: 5, SequenceLength: 7, Flatten: true, HiddenDims: []int{4}, KernelSizes: []int{5}}
	cnnPath := writeArtifact(t, dir, "temp_cnn.json", zeroArtifact(cnn))

	cfg := RegistryConfig{
		Artifacts: []ArtifactRef{
			{FeatureSet: domain.TemperatureFeatures, Kind: KindLSTM, Path: filepath.Join(dir, "missing.json")},
			{FeatureSet: domain.TemperatureFeatures, Kind: KindCNN, Path: cnnPath},
		},
		ARCoefficients: DefaultCoefficients,
		Fallback:       []string{KindLSTM, KindCNN, domain.ModelAR},
	}

	reg, err := LoadRegistry(cfg, discardLogger(), domain.TemperatureFeatures, domain.PrecipitationFeatures)
	require.NoError(t, err)

	p, err := reg.Resolve(domain.TemperatureFeatures.Name, KindLSTM)
	require.NoError(t, err)
	assert.Equal(t, KindCNN, p.Name(), "missing lstm falls back to cnn")

	p, err = reg.Resolve(domain.PrecipitationFeatures.Name, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ModelAR, p.Name())
	require.NotNil(t, reg.Projector())
}

func TestLoadRegistry_RequiredSetWithoutModel(t *testing.T) {
	dir := t.TempDir()
	cfg := RegistryConfig{
		Artifacts: []ArtifactRef{
			{FeatureSet: domain.PrecipitationFeatures, Kind: KindCNN, Path: filepath.Join(dir, "precip.json")},
		},
	}

	_, err := LoadRegistry(cfg, discardLogger(), domain.PrecipitationFeatures)
	var missing *domain.ModelArtifactMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "precipitation/cnn", missing.Model)
}

func TestLoadRegistry_CorruptArtifactIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"architecture":`), 0o600))

	cfg := RegistryConfig{
		Artifacts:      []ArtifactRef{{FeatureSet: domain.TemperatureFeatures, Kind: KindCNN, Path: path}},
		ARCoefficients: DefaultCoefficients,
	}
	_, err := LoadRegistry(cfg, discardLogger(), domain.TemperatureFeatures)
	require.Error(t, err)
}

func TestLoadRegistry_KindMismatch(t *testing.T) {
	dir := t.TempDir()
	cnn := Architecture{Kind: KindCNN, InputDim: 1, OutputDim: 1, HiddenDims: []int{1}, KernelSizes: []int{1}}
	path := writeArtifact(t, dir, "labelled_lstm.json", zeroArtifact(cnn))

	cfg := RegistryConfig{Artifacts: []ArtifactRef{{FeatureSet: domain.TemperatureFeatures, Kind: KindLSTM, Path: path}}}
	_, err := LoadRegistry(cfg, discardLogger(), domain.TemperatureFeatures)
	require.Error(t, err)
}

func TestRegistry_ChainThenRegistrationOrder(t *testing.T) {
	temp := domain.TemperatureFeatures.Name
	reg := NewRegistry(nil, []string{KindCNN},
		Entry{FeatureSet: temp, Predictor: stubPredictor{name: KindLSTM}},
		Entry{FeatureSet: temp, Predictor: stubPredictor{name: domain.ModelAR}},
	)

	p, err := reg.Resolve(temp, "")
	require.NoError(t, err)
	assert.Equal(t, KindLSTM, p.Name(), "chain miss continues with loaded models")

	_, err = reg.Resolve(domain.PrecipitationFeatures.Name, "")
	var missing *domain.ModelArtifactMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "precipitation/cnn", missing.Model)
}

func TestRegistry_KindServedByOtherFeatureSet(t *testing.T) {
	temp, precip := domain.TemperatureFeatures.Name, domain.PrecipitationFeatures.Name
	reg := NewRegistry(nil, nil,
		Entry{FeatureSet: temp, Predictor: stubPredictor{name: KindLSTM}},
		Entry{FeatureSet: precip, Predictor: stubPredictor{name: KindCNN}},
	)

	p, err := reg.Resolve(temp, KindLSTM)
	require.NoError(t, err)
	assert.Equal(t, KindLSTM, p.Name())

	p, err = reg.Resolve(precip, KindLSTM)
	require.NoError(t, err)
	assert.Equal(t, KindCNN, p.Name(), "precipitation has no lstm, uses its own model")
	assert.False(t, reg.Applies(precip, KindLSTM))
	assert.True(t, reg.Applies(temp, KindLSTM))
	assert.True(t, reg.Applies(precip, domain.ModelAR), "a kind nobody carries applies everywhere")

	_, err = reg.Resolve(temp, domain.ModelAR)
	var missing *domain.ModelArtifactMissingError
	require.ErrorAs(t, err, &missing, "a kind no feature set serves still fails")
	assert.Equal(t, "temperature/ar", missing.Model)
}

func TestRegistry_MissingArtifactStaysStrict(t *testing.T) {
	dir := t.TempDir()
	precip := Architecture{Kind: KindCNN, InputDim: 28, OutputDim: 4, SequenceLength: 7, Flatten: true, HiddenDims: []int{2}, KernelSizes: []int{1}}
	cfg := RegistryConfig{
		Artifacts: []ArtifactRef{
			{FeatureSet: domain.TemperatureFeatures, Kind: KindLSTM, Path: filepath.Join(dir, "temperature_lstm.json")},
			{FeatureSet: domain.PrecipitationFeatures, Kind: KindCNN, Path: writeArtifact(t, dir, "precip.json", zeroArtifact(precip))},
		},
		ARCoefficients: DefaultCoefficients,
	}
	reg, err := LoadRegistry(cfg, discardLogger(), domain.TemperatureFeatures, domain.PrecipitationFeatures)
	require.NoError(t, err)

	_, err = reg.Resolve(domain.TemperatureFeatures.Name, KindLSTM)
	var missing *domain.ModelArtifactMissingError
	require.ErrorAs(t, err, &missing, "configured lstm without fallback is not substituted")
	assert.Equal(t, "temperature/lstm", missing.Model)
}

func TestLoadRegistry_LayoutMismatchIsFatal(t *testing.T) {
	tests := []struct {
		name string
		fs   domain.FeatureSet
		arch Architecture
	}{
		{
			name: "precipitation width lstm as temperature",
			fs:   domain.TemperatureFeatures,
			arch: Architecture{Kind: KindLSTM, InputDim: 4, OutputDim: 4, SequenceLength: 7, HiddenSize: 2, NumLayers: 1, FCWidth: 2},
		},
		{
			name: "temperature cnn as precipitation",
			fs:   domain.PrecipitationFeatures,
			arch: Architecture{Kind: KindCNN, InputDim: 35, OutputDim: 5, SequenceLength: 7, Flatten: true, HiddenDims: []int{2}, KernelSizes: []int{1}},
		},
		{
			name: "sequence length",
			fs:   domain.TemperatureFeatures,
			arch: Architecture{Kind: KindLSTM, InputDim: 5, OutputDim: 5, SequenceLength: 14, HiddenSize: 2, NumLayers: 1, FCWidth: 2},
		},
		{
			name: "output too narrow",
			fs:   domain.TemperatureFeatures,
			arch: Architecture{Kind: KindLSTM, InputDim: 5, OutputDim: 2, SequenceLength: 7, HiddenSize: 2, NumLayers: 1, FCWidth: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifact(t, t.TempDir(), "model.json", zeroArtifact(tt.arch))
			cfg := RegistryConfig{
				Artifacts:      []ArtifactRef{{FeatureSet: tt.fs, Kind: tt.arch.Kind, Path: path}},
				ARCoefficients: DefaultCoefficients,
				Fallback:       []string{domain.ModelAR},
			}
			_, err := LoadRegistry(cfg, discardLogger(), tt.fs)
			var mismatch *domain.DimensionMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, domain.KindDimensionMismatch, domain.ErrorKind(err))
		})
	}
}
