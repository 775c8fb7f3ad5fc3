// Package facematch defines the external face-matching capability.
// Matching is probabilistic and lives outside this backend; the
// attendance kiosk endpoint only consumes a verdict and turns it into
// a method=face_recognition mark.
package facematch

import "context"

// Candidate is a registered student photo offered for comparison.
type Candidate struct {
	StudentID uint
	Image     []byte
}

// Verdict is the matcher's answer for one probe image.
type Verdict struct {
	Matched    bool    `json:"matched"`
	StudentID  uint    `json:"student_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

type Matcher interface {
	MatchFace(ctx context.Context, probe []byte, candidates []Candidate) (*Verdict, error)
}

// HeuristicMatcher is a development stand-in that compares image byte
// sizes, mirroring the prototype kiosk build. Deployments plug a real
// matcher behind the Matcher interface.
type HeuristicMatcher struct {
	// Tolerance is the allowed relative size difference, 0..1.
	Tolerance float64
}

func (m *HeuristicMatcher) MatchFace(_ context.Context, probe []byte, candidates []Candidate) (*Verdict, error) {
	tolerance := m.Tolerance
	if tolerance <= 0 {
		tolerance = 0.1
	}

	best := &Verdict{}
	for _, c := range candidates {
		if len(c.Image) == 0 {
			continue
		}
		diff := float64(len(probe)-len(c.Image)) / float64(len(c.Image))
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			continue
		}
		confidence := 1 - diff/tolerance
		if confidence > best.Confidence {
			best = &Verdict{Matched: true, StudentID: c.StudentID, Confidence: confidence}
		}
	}
	return best, nil
}
