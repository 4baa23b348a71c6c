package wton

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
)

func TestOffchainContent(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{name: "short", uri: "https://example.org/wton.json"},
		{name: "spans several cells", uri: "https://example.org/" + strings.Repeat("a", 300) + ".json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := OffchainContent(tt.uri)
			require.Nil(t, err)
			uri, err := ContentURI(content)
			require.Nil(t, err)
			require.Equal(t, tt.uri, uri)
		})
	}
}

func TestContentURI_Empty(t *testing.T) {
	uri, err := ContentURI(boc.NewCell())
	require.Nil(t, err)
	require.Equal(t, "", uri)
}
