package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	tests := []struct {
		count int64
		want  string
	}{
		{0, "Nothing has been indexed."},
		{1, "One record has been indexed."},
		{2, "2 records have been indexed."},
		{5, "5 records have been indexed."},
		{12345, "12345 records have been indexed."},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Report(tt.count))
		})
	}
}
