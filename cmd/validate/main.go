// Command validate checks deployable model artifacts before a release: each
// configured file must decode, match the feature layout the service feeds it,
// produce finite predictions of the right width, and the AR coefficients must
// describe a usable projector.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -models-dir models \
//	  -ar-coefficients 0.5,0.3,0.2
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/model"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	modelsDir := flag.String("models-dir", "models", "directory containing model artifacts")
	coeffs := flag.String("ar-coefficients", "0.5,0.3,0.2", "comma-separated AR lag coefficients; empty skips the check")
	flag.Parse()

	if code := run(os.Stdout, *modelsDir, *coeffs); code != 0 {
		os.Exit(code)
	}
}

// loaded is one artifact that decoded successfully.
type loaded struct {
	profile model.Profile
	network model.Network
}

func run(w io.Writer, modelsDir, coeffs string) int {
	fmt.Fprintln(w, "=== Model Artifact Validation ===")
	fmt.Fprintln(w)

	decode, networks := validateDecoding(modelsDir)
	phases := []*phase{
		decode,
		validateLayout(networks),
		validateInference(networks),
		validateProjector(coeffs),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Artifacts: %d loaded of %d configured\n", len(networks), len(model.StandardProfiles()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateDecoding(dir string) (*phase, []loaded) {
	p := &phase{name: "Phase 1: Artifact decoding"}
	var out []loaded
	for _, prof := range model.StandardProfiles() {
		path := filepath.Join(dir, prof.FileName)
		label := prof.FeatureSet.Name + "/" + prof.Architecture.Kind
		n, err := model.LoadArtifact(path, label)
		var missing *domain.ModelArtifactMissingError
		switch {
		case errors.As(err, &missing):
			// The service tolerates a missing network when another model
			// covers its feature set.
			if !coveredElsewhere(prof, dir) {
				p.errorf("%s: no artifact serves feature set %s", prof.FileName, prof.FeatureSet.Name)
			}
			continue
		case err != nil:
			p.errorf("%s: %v", prof.FileName, err)
			continue
		}
		if n.Name() != prof.Architecture.Kind {
			p.errorf("%s: declares kind %q, expected %q", prof.FileName, n.Name(), prof.Architecture.Kind)
			continue
		}
		out = append(out, loaded{profile: prof, network: n})
	}
	return p, out
}

func coveredElsewhere(prof model.Profile, dir string) bool {
	for _, other := range model.StandardProfiles() {
		if other.FileName == prof.FileName || other.FeatureSet.Name != prof.FeatureSet.Name {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, other.FileName)); err == nil {
			return true
		}
	}
	return false
}

func validateLayout(networks []loaded) *phase {
	p := &phase{name: "Phase 2: Feature layout"}
	for _, l := range networks {
		arch := l.network.Architecture()
		want := l.profile.Architecture
		if arch.InputDim != want.InputDim {
			p.errorf("%s: input_dim %d, service feeds %d", l.profile.FileName, arch.InputDim, want.InputDim)
		}
		if arch.Flatten != want.Flatten {
			p.errorf("%s: flatten=%t, service expects %t", l.profile.FileName, arch.Flatten, want.Flatten)
		}
		if arch.OutputDim < l.profile.FeatureSet.Width() {
			p.errorf("%s: output_dim %d cannot cover %d feature columns",
				l.profile.FileName, arch.OutputDim, l.profile.FeatureSet.Width())
		}
		if arch.SequenceLength != 0 && arch.SequenceLength != domain.DefaultSequenceLength {
			p.errorf("%s: sequence_length %d, service windows hold %d rows",
				l.profile.FileName, arch.SequenceLength, domain.DefaultSequenceLength)
		}
	}
	return p
}

func validateInference(networks []loaded) *phase {
	p := &phase{name: "Phase 3: Inference smoke test"}
	rows := sampleRows()
	for _, l := range networks {
		window, err := domain.BuildWindow(rows, 50.05, 8.6, l.profile.FeatureSet, domain.DefaultSequenceLength)
		if err != nil {
			p.errorf("%s: build window: %v", l.profile.FileName, err)
			continue
		}
		scalers, err := domain.FitScalers(window)
		if err != nil {
			p.errorf("%s: fit scalers: %v", l.profile.FileName, err)
			continue
		}
		scaled, err := scalers.TransformWindow(window)
		if err != nil {
			p.errorf("%s: scale window: %v", l.profile.FileName, err)
			continue
		}
		out, err := l.network.Predict(scaled)
		if err != nil {
			p.errorf("%s: predict: %v", l.profile.FileName, err)
			continue
		}
		for i, v := range out {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				p.errorf("%s: output %d is %v", l.profile.FileName, i, v)
			}
		}
	}
	return p
}

func validateProjector(coeffs string) *phase {
	p := &phase{name: "Phase 4: Autoregressive coefficients"}
	if strings.TrimSpace(coeffs) == "" {
		return p
	}

	var cs []float64
	for _, s := range strings.Split(coeffs, ",") {
		c, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			p.errorf("coefficient %q: %v", s, err)
			return p
		}
		cs = append(cs, c)
	}
	proj, err := model.NewProjector(cs)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	// A constant series must stay bounded over a week of hourly steps.
	history := make([]float64, proj.Order())
	for i := range history {
		history[i] = 10
	}
	for i, v := range proj.Project(history, 7*24) {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e6 {
			p.errorf("projection diverges at step %d: %v", i, v)
			break
		}
	}
	return p
}

// sampleRows is a plausible spring week.
func sampleRows() []domain.DailyRow {
	start := time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC)
	rows := make([]domain.DailyRow, domain.DefaultSequenceLength)
	for i := range rows {
		rows[i] = domain.DailyRow{
			Date:          start.AddDate(0, 0, i),
			TempMax:       14 + float64(i%3),
			TempMin:       4 + float64(i%2),
			Precipitation: float64(i%4) * 0.5,
		}
	}
	return rows
}
