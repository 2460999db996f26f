package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/apex/internal/adapters/tunnel"
	service "github.com/okian/apex/internal/app"
	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/internal/domain/scoring"
)

func (c *cli) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a collaborator with no actions",
		Args:  cobra.ExactArgs(1),
		RunE: c.withBoard(func(cmd *cobra.Command, args []string, b *service.Board) error {
			name, err := b.AddCollaborator(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Aggiunto %s\n", name)
			return nil
		}),
	}
}

func (c *cli) recordCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "record <name> <action>",
		Short: "Record actions for a collaborator",
		Long: "Record actions for a collaborator, creating it when absent.\n" +
			"The action is its name or its number as listed by the actions command.",
		Args: cobra.ExactArgs(2),
		RunE: c.withBoard(func(cmd *cobra.Command, args []string, b *service.Board) error {
			kind := resolveKind(b.Table(), args[1])
			rc, err := b.RecordAction(cmd.Context(), args[0], kind, count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rc.Created {
				fmt.Fprintf(out, "Nuovo collaboratore %s\n", rc.Name)
			}
			fmt.Fprintf(out, "%s: %d x %q (+%d punti, totale %d)\n", rc.Name, rc.Count, rc.Kind, rc.Points*rc.Count, rc.Total)
			return nil
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of actions to record")
	return cmd
}

// resolveKind maps a 1-based position in the point table or a
// case-insensitive action name to the configured action name.
func resolveKind(t *scoring.Table, raw string) string {
	kinds := t.Kinds()
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 1 && n <= len(kinds) {
		return kinds[n-1].Name
	}
	for _, k := range kinds {
		if strings.EqualFold(k.Name, strings.TrimSpace(raw)) {
			return k.Name
		}
	}
	return raw
}

func (c *cli) actionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "Print the point table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tAZIONE\tPUNTI\t")
			for i, k := range c.table().Kinds() {
				note := ""
				if k.DailyLimited {
					note = "una volta al giorno"
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, k.Name, k.Points, note)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) rankCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Print the leaderboard",
		Args:  cobra.NoArgs,
		RunE: c.withBoard(func(cmd *cobra.Command, _ []string, b *service.Board) error {
			out := cmd.OutOrStdout()
			rows := b.Rank()
			if len(rows) == 0 {
				fmt.Fprintln(out, "Nessun collaboratore in classifica")
				return nil
			}
			for _, e := range rows {
				fmt.Fprintf(out, "%d. %s - %d punti\n", e.Rank, e.Name, e.Points)
			}
			return nil
		}),
	}
}

func (c *cli) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <name>",
		Short: "Print the actions of a collaborator with their index",
		Args:  cobra.ExactArgs(1),
		RunE: c.withBoard(func(cmd *cobra.Command, args []string, b *service.Board) error {
			name, actions, err := b.Actions(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d punti)\n", name, b.TotalPoints(name))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for i, a := range actions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i, a.At.Format(model.TimestampLayout), a.Kind, a.Points)
			}
			return tw.Flush()
		}),
	}
}

func (c *cli) deleteActionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-action <name> <index>",
		Short: "Delete one action by the index shown by history",
		Args:  cobra.ExactArgs(2),
		RunE: c.withBoard(func(cmd *cobra.Command, args []string, b *service.Board) error {
			index, err := strconv.Atoi(args[1])
			if err != nil || index < 0 {
				return fmt.Errorf("%w: %q", errBadIndex, args[1])
			}
			removed, err := b.DeleteAction(cmd.Context(), args[0], index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Eliminata %q (%d punti) del %s\n",
				removed.Kind, removed.Points, removed.At.Format(model.TimestampLayout))
			return nil
		}),
	}
}

func (c *cli) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collaborator and all its actions",
		Args:  cobra.ExactArgs(1),
		RunE: c.withBoard(func(cmd *cobra.Command, args []string, b *service.Board) error {
			name, err := b.DeleteCollaborator(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Eliminato %s\n", name)
			return nil
		}),
	}
}

func (c *cli) renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a collaborator keeping its actions",
		Args:  cobra.ExactArgs(2),
		RunE: c.withBoard(func(cmd *cobra.Command, args []string, b *service.Board) error {
			name, err := b.RenameCollaborator(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rinominato in %s\n", name)
			return nil
		}),
	}
}

func (c *cli) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Regenerate the HTML report",
		Args:  cobra.NoArgs,
		RunE: c.withBoard(func(cmd *cobra.Command, _ []string, b *service.Board) error {
			r := c.fileRenderer()
			if err := r.WriteFile(b.Rank()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report scritto in %s\n", r.Path())
			return nil
		}),
	}
}

func (c *cli) uploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Commit and push the data file and the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.uploader().Upload(cmd.Context(), c.publishedFiles()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Caricamento completato")
			return nil
		},
	}
}

func (c *cli) qrCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "qr [url]",
		Short: "Write a QR code PNG for url (default: the public report URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := c.cfg.ReportURL
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" {
				return errNoPublicURL
			}
			if err := tunnel.WriteQR(c.cfg.QRFile, url, size); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "QR per %s scritto in %s\n", url, c.cfg.QRFile)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", tunnel.DefaultQRSize, "image side in pixels")
	return cmd
}

func (c *cli) urlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the public report URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.ReportURL == "" {
				return errNoPublicURL
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.cfg.ReportURL)
			return nil
		},
	}
}
