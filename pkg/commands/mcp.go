package commands

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/runner/mcp"
)

func addMCP(topLevel *cobra.Command) {
	var (
		transport string
		host      string
		port      int
		path      string
		certFile  string
		keyFile   string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the Model Context Protocol server",
		Long: `Expose day planners, templates and the editing commands to MCP clients.
The default transport is streamable HTTP; use --transport stdio when the
client launches planner itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port < 0 || port > 65535 {
				return fmt.Errorf("invalid --http-port %d", port)
			}
			t := mcp.Transport(strings.ToLower(strings.TrimSpace(transport)))
			if t != mcp.TransportHTTP && t != mcp.TransportStdio {
				return fmt.Errorf("unsupported transport %q (expected http or stdio)", transport)
			}

			svc, _, err := openService()
			if err != nil {
				return err
			}
			defer svc.Persistence.Close()

			r := mcp.Runner{
				App:       svc,
				Name:      "planner",
				Version:   version,
				Transport: t,
				Addr:      net.JoinHostPort(host, strconv.Itoa(port)),
				Path:      mcp.EndpointPath(path),
				CertFile:  strings.TrimSpace(certFile),
				KeyFile:   strings.TrimSpace(keyFile),
			}
			r.OnListening = func(a net.Addr) {
				scheme := "http"
				if r.CertFile != "" {
					scheme = "https"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "MCP listening on %s://%s%s\n", scheme, a, r.Path)
			}
			return r.Do(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&transport, "transport", string(mcp.TransportHTTP), "transport to use: http or stdio")
	cmd.Flags().StringVar(&host, "http-host", "127.0.0.1", "interface for the HTTP transport")
	cmd.Flags().IntVar(&port, "http-port", 8080, "port for the HTTP transport (0 picks one)")
	cmd.Flags().StringVar(&path, "http-path", "/mcp", "HTTP endpoint path")
	cmd.Flags().StringVar(&certFile, "http-tls-cert", "", "TLS certificate file")
	cmd.Flags().StringVar(&keyFile, "http-tls-key", "", "TLS private key file")

	topLevel.AddCommand(cmd)
}
