package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"textscope/internal/image"
	"textscope/internal/orientation"
	"textscope/internal/pipeline"
)

func (c *CLI) scanCmd() *cobra.Command {
	var rotate string
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Recognize the text in one image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			ip := image.NewImageProcessor()
			img, err := ip.Decode(data)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", args[0], err)
			}
			if rotate != "" {
				o, err := orientation.Parse(rotate)
				if err != nil {
					return err
				}
				if img, err = ip.Rotate(img, orientation.RotationAngle(o)); err != nil {
					return err
				}
			}

			opts, err := c.cfg.OCROptions()
			if err != nil {
				return err
			}
			r, err := c.recognizer()
			if err != nil {
				return err
			}
			defer r.Close()

			text, err := pipeline.Recognize(cmd.Context(), r, img, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVar(&rotate, "orientation", "", "rotate as if captured in this device orientation")
	return cmd
}
