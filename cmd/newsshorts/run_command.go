package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var noUpload bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if noUpload {
				cfg.Pipeline.Upload = false
			}
			log := ctx.logger()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(runCtx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.pipeline.Run(runCtx)
			if err != nil {
				return err
			}
			for _, v := range res.Videos {
				line := fmt.Sprintf("%s\t%s\t%s", v.Kind, v.Language, v.Path)
				if v.VideoID != "" {
					line += "\thttps://youtu.be/" + v.VideoID
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noUpload, "no-upload", false, "Render videos without publishing them")
	return cmd
}
