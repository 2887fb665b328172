package debpkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatByteSize(t *testing.T) {
	tests := []struct {
		size      float64
		precision int
		want      string
	}{
		{0, 1, "0 B"},
		{512, 1, "512 B"},
		{1023, 2, "1023 B"},
		{1024, 1, "1.0 KB"},
		{1536, 1, "1.5 KB"},
		{512 * 1024, 1, "512.0 KB"},
		{2048 * 1024, 1, "2.0 MB"},
		{1024 * 1024 * 1024, 2, "1.00 GB"},
		{1.5 * 1024 * 1024 * 1024 * 1024, 1, "1.5 TB"},
		{1024 * 1024, 0, "1 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatByteSize(tt.size, tt.precision))
		})
	}
}

func TestFormatByteSizeLargestUnit(t *testing.T) {
	yb := 1.0
	for range 8 {
		yb *= 1024
	}
	assert.Equal(t, "2048.0 YB", FormatByteSize(yb*2048, 1))
}

func TestFormatInstalledSize(t *testing.T) {
	assert.Equal(t, "2.0 MB", FormatInstalledSize("2048"))
	assert.Equal(t, "512.0 KB", FormatInstalledSize("512"))
	assert.Equal(t, "1.0 KB", FormatInstalledSize("1"))
	assert.Equal(t, "0 B", FormatInstalledSize("0"))
	assert.Equal(t, "", FormatInstalledSize("lots"))
	assert.Equal(t, "", FormatInstalledSize(""))
}
