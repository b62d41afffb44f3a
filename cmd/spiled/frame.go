package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-spiled/internal/led"
)

func newFrameCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "frame [flags] value...",
		Short: "Print the bytes a strip would receive for the given channel values",
		Example: `  spiled frame --type ws2801 1 0 0.5
  spiled frame --type p9813 0 0.5 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := led.ParseType(typ)
			if err != nil {
				return err
			}
			values := make([]float64, len(args))
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("value %d: %w", i, err)
				}
				values[i] = v
			}
			frame, err := encodeFrame(t, values)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(frame))
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", string(led.WS2801), "chip type (lpd8806, ws2801, p9813)")
	return cmd
}

func encodeFrame(t led.Type, values []float64) ([]byte, error) {
	proto, err := t.Protocol()
	if err != nil {
		return nil, err
	}
	frame := make([]byte, proto.FrameSize(len(values)))
	proto.Blank(frame, len(values))
	proto.Encode(frame, values)
	return frame, nil
}
