package domain

import (
	"errors"
	"time"
)

var ErrBackupDisabled = errors.New("backup store is disabled")

// ImageRecord describes one image file on disk.
type ImageRecord struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

type OptimizeResult struct {
	Original  ImageRecord `json:"original"`
	Optimized ImageRecord `json:"optimized"`
	Resized   bool        `json:"resized"`
	Skipped   bool        `json:"skipped"`
	BackupKey string      `json:"backup_key,omitempty"`
}

// ReductionPercent returns how much smaller the optimized file is, in percent.
func (r OptimizeResult) ReductionPercent() float64 {
	if r.Original.Size == 0 {
		return 0
	}
	return float64(r.Original.Size-r.Optimized.Size) / float64(r.Original.Size) * 100
}

type OptimizeRun struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []OptimizeResult `json:"results"`
}

// Feature is a marker token searched for in the JS bundle.
type Feature struct {
	Token       string `json:"token"`
	Description string `json:"description"`
}

type CheckResult struct {
	Feature Feature `json:"feature"`
	Found   bool    `json:"found"`
}

type VerificationReport struct {
	URL         string        `json:"url"`
	StatusCode  int           `json:"status_code,omitempty"`
	RootFound   bool          `json:"root_found"`
	JSBundle    string        `json:"js_bundle,omitempty"`
	CSSBundle   string        `json:"css_bundle,omitempty"`
	BundleSize  int           `json:"bundle_size,omitempty"`
	Checks      []CheckResult `json:"checks,omitempty"`
	Found       int           `json:"found"`
	MinFeatures int           `json:"min_features"`
	Passed      bool          `json:"passed"`
	Error       string        `json:"error,omitempty"`
}
