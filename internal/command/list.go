package command

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
)

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored assets, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum number of assets to list",
				Value: 20,
			},
		},
		Action: func(c *cli.Context) error {
			backend, release, err := a.backend(c.Context)
			if err != nil {
				return cli.Exit("Failed to open storage: "+err.Error(), 1)
			}
			defer release()

			assets, err := backend.Catalog.List(c.Context, c.Int("limit"))
			if err != nil {
				return cli.Exit("Failed to retrieve assets: "+err.Error(), 1)
			}

			if len(assets) == 0 {
				fmt.Fprintln(c.App.Writer, "No assets found.")
				return nil
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPACKETS\tBYTES\tDURATION\tCREATED")
			for _, asset := range assets {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
					asset.ID,
					asset.Name,
					asset.PacketCount,
					asset.TotalBytes,
					asset.Duration(),
					asset.CreatedAt.Format(time.RFC3339),
				)
			}
			return w.Flush()
		},
	}
}
