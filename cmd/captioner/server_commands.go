package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/config"
	"captioner/internal/devserver"
	"captioner/internal/hostsim"
	"captioner/internal/ipc"
	"captioner/internal/logging"
)

func newDevServerCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var model string

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run the local fake transcription service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			if strings.TrimSpace(addr) == "" {
				addr = cfg.DevServer.Addr
			}
			if strings.TrimSpace(model) == "" {
				model = cfg.DevServer.Model
			}
			srv := devserver.New(devserver.Options{Addr: addr, Model: model, Logger: logger, Logs: ctx.hub})
			return srv.Run(cmd.Context(), func(bound string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Fake transcription service listening on http://%s (model %s)\n", bound, model)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to dev_server.addr)")
	cmd.Flags().StringVar(&model, "model", "", "Model name to advertise (defaults to dev_server.model)")
	return cmd
}

func newHostServerCommand(ctx *commandContext) *cobra.Command {
	var socket string
	var project string
	var legacy bool

	cmd := &cobra.Command{
		Use:   "host-server",
		Short: "Serve the simulated host over the JSON-RPC socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			if strings.TrimSpace(socket) == "" {
				socket = cfg.Host.SocketPath
			} else if socket, err = config.ExpandPath(socket); err != nil {
				return err
			}
			if strings.TrimSpace(project) == "" {
				project = cfg.Host.DevProjectPath
			}

			opts := []hostsim.Option{hostsim.WithLogger(logger)}
			if legacy {
				opts = append(opts, hostsim.WithLegacyErrors())
			}
			sim := hostsim.New(project, opts...)

			srv, err := ipc.NewServer(cmd.Context(), socket, sim, logger)
			if err != nil {
				return err
			}
			defer srv.Close()
			srv.Serve()

			fmt.Fprintf(cmd.OutOrStdout(), "Simulated host serving %s on %s\n", project, socket)
			<-cmd.Context().Done()
			logger.Info("host server shutting down", logging.String("socket", socket))
			return nil
		},
	}

	cmd.Flags().StringVar(&socket, "socket", "", "Socket path (defaults to host.socket_path)")
	cmd.Flags().StringVar(&project, "project", "", "Simulated project file (defaults to host.dev_project_path)")
	cmd.Flags().BoolVar(&legacy, "legacy-errors", false, "Answer preconditions with uncoded legacy messages")
	return cmd
}
