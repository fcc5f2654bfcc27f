package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"siteops/internal/config"
	"siteops/internal/domain"
	"siteops/pkg/utils"
)

type VerifyService interface {
	// Verify runs the deployment checks against baseURL, or the configured
	// URL when baseURL is empty. Failures are reported, never returned.
	Verify(ctx context.Context, baseURL string) *domain.VerificationReport
}

type verifyService struct {
	client *http.Client
	cfg    *config.VerifyConfig
	log    *zap.Logger
}

func NewVerifyService(client *http.Client, cfg *config.VerifyConfig, log *zap.Logger) VerifyService {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &verifyService{
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

func (s *verifyService) Verify(ctx context.Context, baseURL string) *domain.VerificationReport {
	if baseURL == "" {
		baseURL = s.cfg.URL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	report := &domain.VerificationReport{
		URL:         baseURL,
		MinFeatures: s.cfg.MinFeatures,
	}

	if err := s.run(ctx, report); err != nil {
		s.log.Error("Deployment verification failed",
			zap.String("url", baseURL),
			zap.Error(err))
		report.Error = err.Error()
		report.Passed = false
		return report
	}

	s.log.Info("Deployment verification finished",
		zap.String("url", baseURL),
		zap.Int("found", report.Found),
		zap.Int("total", len(report.Checks)),
		zap.Bool("passed", report.Passed))

	return report
}

func (s *verifyService) run(ctx context.Context, report *domain.VerificationReport) error {
	page, status, err := s.fetch(ctx, report.URL)
	if err != nil {
		return err
	}
	report.StatusCode = status

	report.RootFound = utils.HasRootElement(page)

	jsBundle, ok := utils.FindBundle(page, "js")
	if !ok {
		return nil
	}
	report.JSBundle = jsBundle

	if css, ok := utils.FindBundle(page, "css"); ok {
		report.CSSBundle = css
	}

	bundle, _, err := s.fetch(ctx, report.URL+"/"+jsBundle)
	if err != nil {
		return err
	}
	report.BundleSize = utf8.RuneCountInString(bundle)

	report.Checks, report.Found = utils.CountTokens(bundle, s.cfg.Features)
	report.Passed = report.Found >= s.cfg.MinFeatures

	return nil
}

func (s *verifyService) fetch(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, fmt.Errorf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read %s: %w", url, err)
	}
	if !utf8.Valid(body) {
		return "", resp.StatusCode, fmt.Errorf("%s: response is not valid UTF-8", url)
	}

	s.log.Debug("Fetched",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))

	return string(body), resp.StatusCode, nil
}
