package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Address
		wantErr bool
	}{
		{
			name: "lowercase passes through",
			in:   "0x00000000000000000000000000000000000000ab",
			want: "0x00000000000000000000000000000000000000ab",
		},
		{
			name: "uppercase hex is normalized",
			in:   "0x00000000000000000000000000000000000000AB",
			want: "0x00000000000000000000000000000000000000ab",
		},
		{
			name: "0X prefix is accepted",
			in:   "0X00000000000000000000000000000000000000ab",
			want: "0x00000000000000000000000000000000000000ab",
		},
		{
			name: "surrounding whitespace is trimmed",
			in:   "  0x00000000000000000000000000000000000000ab\n",
			want: "0x00000000000000000000000000000000000000ab",
		},
		{name: "missing prefix", in: "00000000000000000000000000000000000000ab", wantErr: true},
		{name: "too short", in: "0xab", wantErr: true},
		{name: "too long", in: "0x00000000000000000000000000000000000000abcd", wantErr: true},
		{name: "non-hex characters", in: "0x00000000000000000000000000000000000000zz", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddressIsZero(t *testing.T) {
	assert.True(t, Address("").IsZero())
	assert.True(t, ZeroAddress.IsZero())
	assert.False(t, Address("0x00000000000000000000000000000000000000ab").IsZero())
}
