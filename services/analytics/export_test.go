package main

import (
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

type stubUploader struct {
	input *s3manager.UploadInput
	err   error
}

func (s *stubUploader) Upload(input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &s3manager.UploadOutput{Location: "https://reports.example.com/" + *input.Key}, nil
}

func TestReportExporter_Export(t *testing.T) {
	stub := &stubUploader{}
	exporter := &ReportExporter{uploader: stub, bucket: "lodgio-reports"}

	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	summary := &ReservationSummary{
		TenantID:     uuid.New(),
		From:         day,
		To:           day.AddDate(0, 0, 1),
		Total:        12,
		Confirmed:    9,
		RevenueCents: 450000,
	}

	location, err := exporter.Export(summary, day)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if location == "" {
		t.Error("expected a non-empty location")
	}

	wantKey := "reports/" + summary.TenantID.String() + "/2026-08-22.json"
	if *stub.input.Key != wantKey {
		t.Errorf("key = %q, want %q", *stub.input.Key, wantKey)
	}
	if *stub.input.Bucket != "lodgio-reports" {
		t.Errorf("bucket = %q, want lodgio-reports", *stub.input.Bucket)
	}

	body, err := io.ReadAll(stub.input.Body)
	if err != nil {
		t.Fatalf("reading uploaded body: %v", err)
	}
	var uploaded ReservationSummary
	if err := json.Unmarshal(body, &uploaded); err != nil {
		t.Fatalf("uploaded body is not valid JSON: %v", err)
	}
	if uploaded.TenantID != summary.TenantID || uploaded.RevenueCents != summary.RevenueCents {
		t.Errorf("uploaded summary = %+v, want %+v", uploaded, summary)
	}
}

func TestReportExporter_UploadFailure(t *testing.T) {
	exporter := &ReportExporter{
		uploader: &stubUploader{err: errors.New("s3 unavailable")},
		bucket:   "lodgio-reports",
	}

	summary := &ReservationSummary{TenantID: uuid.New()}
	if _, err := exporter.Export(summary, time.Now()); err == nil {
		t.Fatal("export against a failing uploader must error")
	}
}
