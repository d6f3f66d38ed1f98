// Command genmock writes placeholder model artifacts and a synthetic hourly
// history CSV for local development and smoke tests. Weights are seeded
// pseudo-random values, so the generated networks have the production shapes
// but carry no forecasting skill.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -models-dir models \
//	  -history-out data/mock/history_240426.csv
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-forecast-service/internal/adapter/csvfile"
	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/model"
)

// baseDate is the last archived day of the synthetic station.
var baseDate = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

const (
	mockStationID = "10637"
	mockLat       = 50.05
	mockLon       = 8.6
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	modelsDir := flag.String("models-dir", "", "output directory for model artifacts")
	historyOut := flag.String("history-out", "", "output path for the synthetic hourly history CSV")
	days := flag.Int("days", 30, "days of hourly history to generate")
	seed := flag.Uint64("seed", 42, "weight and history seed")
	flag.Parse()

	if *modelsDir == "" && *historyOut == "" {
		flag.Usage()
		return fmt.Errorf("at least one of -models-dir, -history-out is required")
	}

	// Set a fixed clock so generated timestamps are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate.Add(23 * time.Hour)))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)) //nolint:gosec // fixtures, not secrets

	if *modelsDir != "" {
		if err := os.MkdirAll(*modelsDir, 0o750); err != nil {
			return err
		}
		for _, p := range model.StandardProfiles() {
			a := randomArtifact(p.Architecture, rng)
			if _, err := a.Build(); err != nil {
				return fmt.Errorf("%s: %w", p.FileName, err)
			}
			path := filepath.Join(*modelsDir, p.FileName)
			if err := writeJSON(path, a); err != nil {
				return fmt.Errorf("writing %s: %w", p.FileName, err)
			}
			log.Printf("wrote %s (%s, %d tensors)", path, p.Architecture.Kind, len(a.Tensors))
		}
	}

	if *historyOut != "" {
		obs := syntheticHistory(*days, rng)
		if err := writeHistory(*historyOut, obs); err != nil {
			return fmt.Errorf("writing history: %w", err)
		}
		log.Printf("wrote history fixture: %s (%d rows)", *historyOut, len(obs))
		printStats(obs)
	}
	return nil
}

// randomArtifact fills every tensor with values drawn uniformly from
// ±1/sqrt(fan-in), the range PyTorch initializes linear and conv layers with.
func randomArtifact(arch model.Architecture, rng *rand.Rand) model.Artifact {
	shapes := arch.TensorShapes()
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names) // fixed draw order per seed

	tensors := make(map[string]model.Tensor, len(shapes))
	for _, name := range names {
		shape := shapes[name]
		size, fanIn := 1, 1
		for i, d := range shape {
			size *= d
			if i > 0 {
				fanIn *= d
			}
		}
		bound := 1 / math.Sqrt(float64(max(fanIn, 1)))
		data := make([]float64, size)
		for i := range data {
			data[i] = (2*rng.Float64() - 1) * bound
		}
		tensors[name] = model.Tensor{Shape: shape, Data: data}
	}
	return model.Artifact{Architecture: arch, Tensors: tensors}
}

// syntheticHistory produces hourly observations ending at the last hour of
// baseDate with a diurnal temperature cycle and occasional showers.
func syntheticHistory(days int, rng *rand.Rand) []domain.Observation {
	end := domain.Now()
	n := days * 24
	obs := make([]domain.Observation, n)
	for i := range obs {
		ts := end.Add(time.Duration(i-n+1) * time.Hour)
		diurnal := math.Sin(2 * math.Pi * float64(ts.Hour()-9) / 24)
		temp := 11 + 6*diurnal + rng.NormFloat64()
		var prcp float64
		if rng.Float64() < 0.08 {
			prcp = math.Round(rng.ExpFloat64()*10) / 10
		}
		obs[i] = domain.Observation{
			StationID:     mockStationID,
			Time:          ts,
			Temperature:   math.Round(temp*10) / 10,
			Dewpoint:      math.Round((temp-4)*10) / 10,
			Humidity:      math.Round(70 - 15*diurnal),
			Precipitation: prcp,
			WindDirection: float64(rng.IntN(36) * 10),
			WindSpeed:     math.Round(rng.Float64()*200) / 10,
			Pressure:      math.Round((1013+rng.NormFloat64()*3)*10) / 10,
			Condition:     float64(domain.ClassifyCondition(prcp, temp-3, temp+3)),
		}
	}
	return obs
}

// writeHistory encodes observations with the trajectory CSV layout so the
// file feeds cmd/fitar directly.
func writeHistory(path string, obs []domain.Observation) error {
	t := domain.Trajectory{
		StationID: mockStationID,
		Lat:       mockLat,
		Lon:       mockLon,
		Columns:   domain.HourlyColumns,
		Steps:     make([]domain.TrajectoryStep, len(obs)),
	}
	for i, o := range obs {
		vals := make(domain.FeatureVector, len(domain.HourlyColumns))
		for j, col := range domain.HourlyColumns {
			vals[j], _ = o.Value(col)
		}
		t.Steps[i] = domain.TrajectoryStep{Time: o.Time, Values: vals}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return err
	}
	if err := csvfile.Encode(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printStats(obs []domain.Observation) {
	daily := domain.AggregateDaily(obs)
	counts := map[domain.ConditionCode]int{}
	for _, d := range daily {
		counts[domain.ClassifyCondition(d.Precipitation, d.TempMin, d.TempMax)]++
	}
	log.Printf("days: %d", len(daily))
	codes := make([]int, 0, len(counts))
	for c := range counts {
		codes = append(codes, int(c))
	}
	sort.Ints(codes)
	for _, c := range codes {
		log.Printf("  %-14s %d", domain.ConditionCode(c).String(), counts[domain.ConditionCode(c)])
	}
}
