package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		wantErr     error
	}{
		{"csv", "sales.csv", "text/csv", nil},
		{"csv upper extension", "SALES.CSV", "text/csv", nil},
		{"csv with charset", "sales.csv", "text/csv; charset=utf-8", nil},
		{"csv from excel", "sales.csv", "application/vnd.ms-excel", nil},
		{"txt plain", "notes.txt", "text/plain", nil},
		{"txt wrong type", "notes.txt", "text/csv", ErrUnsupportedFileType},
		{"json", "data.json", "application/json", ErrUnsupportedFileType},
		{"csv disguised", "data.csv", "image/png", ErrUnsupportedFileType},
		{"no extension", "data", "text/csv", ErrUnsupportedFileType},
		{"empty name", "", "text/csv", ErrUnsupportedFileType},
		{"bad content type", "data.csv", ";;", ErrUnsupportedFileType},
		{"script name", "<img src=x onerror=alert(1)>.csv", "text/csv", ErrUnsafeFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.fileName, tt.contentType)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCleanFileName(t *testing.T) {
	assert.Equal(t, "report.csv", CleanFileName("report.csv"))
	assert.Equal(t, "report.csv", CleanFileName("../../etc/report.csv"))
	assert.Equal(t, "report.csv", CleanFileName(`C:\Users\me\report.csv`))
	assert.Equal(t, "report.csv", CleanFileName("  report.csv "))
}
