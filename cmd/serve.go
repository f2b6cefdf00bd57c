package cmd

import (
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/KaramelBytes/datalicious/internal/assistant"
	"github.com/KaramelBytes/datalicious/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	srvHost   string
	srvPort   int
	srvCORS   string
	srvDetail string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Example: `  datalicious serve
  datalicious serve --host 0.0.0.0 --port 8080 --cors https://app.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		f := cmd.Flags()
		if f.Changed("host") {
			c.Host = srvHost
		}
		if f.Changed("port") {
			if err := c.Set("port", strconv.Itoa(srvPort)); err != nil {
				return err
			}
		}
		if f.Changed("cors") {
			if err := c.Set("cors_origins", srvCORS); err != nil {
				return err
			}
		}
		level, err := resolveDetail(srvDetail, c)
		if err != nil {
			return err
		}
		gw, err := buildGateway(c)
		if err != nil {
			return err
		}
		if err := gw.Ready(); err != nil {
			log.Warn().Err(err).Msg("LLM gateway not ready; responses will use the structural fallback")
		}
		svc := assistant.New(gw, analysisOptions(c))

		s := server.New(server.Options{
			Host:        c.Host,
			Port:        c.Port,
			Version:     Version,
			CORSOrigins: c.CORSOrigins,
			DetailLevel: level,
		}, svc)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log.Info().Str("provider", c.Provider).Str("cors", strings.Join(c.CORSOrigins, ",")).Msg("starting " + server.ServiceName)
		return s.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVar(&srvPort, "port", 0, "listen port (default from config)")
	serveCmd.Flags().StringVar(&srvCORS, "cors", "", "comma-separated allowed origins (default from config)")
	serveCmd.Flags().StringVar(&srvDetail, "detail", "", "default digest detail level for requests without one")
}
