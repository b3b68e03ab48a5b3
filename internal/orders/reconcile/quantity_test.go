package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		fallback int64
		want     int64
		wantErr  bool
	}{
		{name: "plain number", raw: "7", want: 7},
		{name: "zero", raw: "0", want: 0},
		{name: "empty uses fallback", raw: "", fallback: 10, want: 10},
		{name: "whitespace uses fallback", raw: "   ", fallback: 3, want: 3},
		{name: "surrounding spaces trimmed", raw: " 12 ", want: 12},
		{name: "negative rejected", raw: "-1", wantErr: true},
		{name: "fraction rejected", raw: "1.5", wantErr: true},
		{name: "text rejected", raw: "abc", wantErr: true},
		{name: "infinity rejected", raw: "Inf", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseQuantity(tc.raw, tc.fallback)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidQuantity)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestResolveReceivedDefaults(t *testing.T) {
	line := OrderLine{SKU: "SKU-A", Qty: 10}

	good, damaged, err := resolveReceived(line, nil)
	require.NoError(t, err)
	require.Equal(t, int64(10), good, "no record means the full ordered quantity arrived")
	require.Equal(t, int64(0), damaged)

	five := int64(5)
	good, damaged, err = resolveReceived(line, &ReceivedLine{SKU: "SKU-A", Damaged: &five})
	require.NoError(t, err)
	require.Equal(t, int64(10), good)
	require.Equal(t, int64(5), damaged)

	neg := int64(-2)
	_, _, err = resolveReceived(line, &ReceivedLine{SKU: "SKU-A", Good: &neg})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
