package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"scalar", 200, "200"},
		{"string", "oval", "oval"},
		{"list", []any{400, 200.5}, "400,200.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flagValue(tt.in))
		})
	}
}

func TestBindFlagsFromEnv(t *testing.T) {
	t.Setenv("TRB_MAX_BLOCK_LEN", "150")
	var maxLen float64
	var thresholds []float64
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Float64Var(&maxLen, "max-block-len", 200, "")
	cmd.Flags().Float64SliceVar(&thresholds, "decay-thresholds", []float64{400}, "")

	v := viper.New()
	v.Set("decay-thresholds", []any{100, 50})
	bindFlags(cmd, v)

	require.Equal(t, 150.0, maxLen)
	assert.Equal(t, []float64{100, 50}, thresholds)
}
