package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentic-research/proctest/internal/config"
	"github.com/agentic-research/proctest/internal/layercache"
	"github.com/agentic-research/proctest/internal/manifest"
	"github.com/agentic-research/proctest/internal/nfsmount"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve <manifest> [mountpoint]",
		Short: "Serve manifest assets as a read-only NFS filesystem",
		Long: `Serve every manifest asset as <name>.usda over NFS.

Environment:
  PROCTEST_NFS_LISTEN         listen address (default ":0")
  PROCTEST_NFS_MOUNT          mount at [mountpoint] with the system mount command (default false)
  PROCTEST_NFS_MOUNT_OPTIONS  extra comma-separated mount options; the mount stays read-only`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServe()
			if err != nil {
				return err
			}
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			fs := nfsmount.NewAssetFS(m, layercache.New())
			srv, err := nfsmount.NewServer(fs, cfg.Listen)
			if err != nil {
				return err
			}
			defer func() { _ = srv.Close() }()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %d assets over NFS on %s\n", len(m.Assets), srv.Addr())

			var mountpoint string
			if len(args) == 2 && cfg.Mount {
				mountpoint = args[1]
				if err := nfsmount.Mount(srv.Port(), mountpoint, cfg.MountOptions...); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Mounted at %s\n", mountpoint)
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			if mountpoint != "" {
				if err := nfsmount.Unmount(mountpoint); err != nil {
					log.Printf("serve: %v", err)
				}
			}
			return nil
		},
	}
}
