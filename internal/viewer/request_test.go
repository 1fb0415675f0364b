package viewer

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRequest(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"https://docs.example.com/", DefaultPage},
		{"/", DefaultPage},
		{"/?page=", DefaultPage},
		{"/?other=1", DefaultPage},
		{"/?page=foo.md", "foo.md"},
		{"/viewer?x=1&page=guide/intro.md", "guide/intro.md"},
		{"/?page=a%20b.md", "a b.md"},
		{"/?page=first.md&page=second.md", "first.md"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			u, err := url.Parse(tt.addr)
			require.NoError(t, err)
			assert.Equal(t, DocumentRequest{Page: tt.want}, ResolveRequest(u))
			assert.Equal(t, DocumentRequest{Page: tt.want}, ResolveAddress(tt.addr))
		})
	}
}

func TestResolveRequest_NilAndUnparsable(t *testing.T) {
	assert.Equal(t, DefaultPage, ResolveRequest(nil).Page)
	assert.Equal(t, DefaultPage, ResolveAddress("http://[::1:bad").Page)
	assert.Equal(t, DefaultPage, ResolveAddress("").Page)
}
