package pkg

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetenv(t *testing.T) {
	const (
		key        = "SHADE_LEDGER_CONFIG"
		defaultCfg = "/home/shade/config.yml"
	)

	testCases := []struct {
		name  string
		set   bool
		value string
		want  string
	}{
		{name: "unset falls back to default", want: defaultCfg},
		{name: "empty value wins over default", set: true, value: "", want: ""},
		{name: "set value", set: true, value: "/etc/shade-ledger/config.yml", want: "/etc/shade-ledger/config.yml"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(key, tc.value)
			if !tc.set {
				require.NoError(t, os.Unsetenv(key))
			}
			assert.Equal(t, tc.want, Getenv(key, defaultCfg))
		})
	}
}
