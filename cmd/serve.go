package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/insightbrd/brd/internal/api"
	"github.com/insightbrd/brd/internal/daemon"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing the REST API under /api/v1.
By default it listens on port 8080. Use --port to change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The store holds a single SQLite connection, so refuse to start
		// a second server against the same state directory.
		pidfile := daemon.New(filepath.Join(viper.GetString("state_dir"), "brd-serve.pid"))
		if err := pidfile.Acquire(); err != nil {
			return err
		}
		defer pidfile.Release()

		s, err := getStore()
		if err != nil {
			return err
		}

		srv := api.NewServer(s, getLLM())
		srv.SlackToken = viper.GetString("slack.token")

		port := viper.GetInt("port")
		addr := fmt.Sprintf(":%d", port)
		fmt.Printf("Serving API at http://localhost%s/api/v1\n", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	viper.SetDefault("port", 8080)
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
