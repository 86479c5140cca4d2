package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pizzabox/internal/hal"
	"pizzabox/internal/link"
)

// withBox holds the controller lock, connects to the microcontroller, runs
// fn, and always drops HELO1 and releases the hardware afterwards.
func withBox(parent context.Context, ctx *commandContext, fn func(context.Context, *hal.Box) error) error {
	return ctx.withLock(func() error {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		logger, err := ctx.ensureLogger()
		if err != nil {
			return err
		}
		box, err := openBox(cfg, logger)
		if err != nil {
			return err
		}
		if err := box.Connect(parent); err != nil {
			return errors.Join(err, box.Close())
		}
		runErr := fn(parent, box)
		return errors.Join(runErr, box.Reset(), box.Close())
	})
}

func newRewindCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rewind",
		Short: "Turn the lights off and rewind both scrolls",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBox(cmd.Context(), ctx, func(c context.Context, box *hal.Box) error {
				if err := hal.TurnOff(c, box); err != nil {
					return err
				}
				if err := hal.RewindScrolls(c, box); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Scrolls rewound")
				return nil
			})
		},
	}
}

func newSelfTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Light the box, wait for a button, then rewind",
		Long: `Selftest exercises the lights, the buttons, and the scroll motors: both
light layers go full white, the box waits for any button without a timeout,
then the lights go off and the scrolls rewind.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBox(cmd.Context(), ctx, func(c context.Context, box *hal.Box) error {
				return hardwareSelfTest(c, box, cmd.OutOrStdout())
			})
		},
	}
}

func hardwareSelfTest(ctx context.Context, d hal.Device, out io.Writer) error {
	white := link.RGBW{R: 1, G: 1, B: 1, W: 1}
	for _, layer := range []link.Layer{link.Backlight, link.Frontlight} {
		if err := hal.SetLight(ctx, d, layer, white, 0, true); err != nil {
			return err
		}
	}
	if _, err := hal.DoIt(ctx, d, true); err != nil {
		return err
	}
	fmt.Fprintln(out, "Lights on. Press any button...")

	var mask link.Button
	for _, b := range link.Buttons {
		mask |= b
	}
	pressed, ok, err := hal.WaitForInput(ctx, d, mask, "", 0)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "Pressed %s\n", pressed)
	} else {
		fmt.Fprintln(out, "No button pressed")
	}

	if err := hal.TurnOff(ctx, d); err != nil {
		return err
	}
	if err := hal.RewindScrolls(ctx, d); err != nil {
		return err
	}
	fmt.Fprintln(out, "Self test complete")
	return nil
}

func newDebugCommand(ctx *commandContext) *cobra.Command {
	debugCmd := &cobra.Command{
		Use:   "debug",
		Short: "Send firmware debug frames",
	}
	debugCmd.AddCommand(newDebugFrameCommand(ctx, "scroll", "Run the firmware scroll calibration", link.DebugScroll()))
	debugCmd.AddCommand(newDebugFrameCommand(ctx, "sensors", "Dump the firmware sensor readings", link.DebugSensors()))
	return debugCmd
}

func newDebugFrameCommand(ctx *commandContext, use, short string, frame link.Frame) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBox(cmd.Context(), ctx, func(c context.Context, box *hal.Box) error {
				if _, err := box.Send(c, frame, true); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s acknowledged\n", frame.Command)
				return nil
			})
		},
	}
}
