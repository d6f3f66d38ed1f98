package model

import "github.com/couchcryptid/weather-forecast-service/internal/domain"

// Profile is the architecture a production network is trained with for one
// feature set, plus the artifact file name it is conventionally stored under.
type Profile struct {
	FeatureSet   domain.FeatureSet
	Architecture Architecture
	FileName     string
}

// StandardProfiles lists the networks the service loads by default.
func StandardProfiles() []Profile {
	seq := domain.DefaultSequenceLength
	temp, precip := domain.TemperatureFeatures, domain.PrecipitationFeatures
	return []Profile{
		{
			FeatureSet: temp,
			FileName:   "temperature_lstm.json",
			Architecture: Architecture{
				Kind: KindLSTM, InputDim: temp.Width(), OutputDim: temp.Width(),
				SequenceLength: seq, HiddenSize: 64, NumLayers: 2, FCWidth: defaultFCWidth,
			},
		},
		{
			FeatureSet: temp,
			FileName:   "temperature_cnn.json",
			Architecture: Architecture{
				Kind: KindCNN, InputDim: seq * temp.Width(), OutputDim: temp.Width(),
				SequenceLength: seq, Flatten: true,
				HiddenDims: []int{32, 64}, KernelSizes: []int{5, 5},
				Activations: []Activation{ReLU, ReLU},
			},
		},
		{
			FeatureSet: precip,
			FileName:   "precipitation_cnn.json",
			Architecture: Architecture{
				Kind: KindCNN, InputDim: seq * precip.Width(), OutputDim: precip.Width(),
				SequenceLength: seq, Flatten: true,
				HiddenDims: []int{32, 64}, KernelSizes: []int{13, 5},
				Activations: []Activation{ReLU, Sigmoid},
			},
		},
	}
}
