package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/dmitrijs2005/strongholder/internal/filex"
	"github.com/dmitrijs2005/strongholder/internal/netx"
)

func (a *App) archives(ctx context.Context, _ []string) error {
	archives, err := a.client.ListArchives(ctx)
	if err != nil {
		return err
	}
	if len(archives) == 0 {
		fmt.Fprintln(a.out, "No archives yet")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ARCHIVE\tTIME")
	for _, ar := range archives {
		fmt.Fprintf(w, "%s\t%s\n", ar.Name, ar.Time)
	}
	return w.Flush()
}

func (a *App) content(ctx context.Context, args []string) error {
	files, err := a.client.ListArchiveContent(ctx, args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSIZE\tMTIME\tPATH")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", f.Type, f.Size, f.Mtime, f.Path)
	}
	return w.Flush()
}

func (a *App) logs(ctx context.Context, _ []string) error {
	logs, err := a.client.Logs(ctx)
	if err != nil {
		return err
	}
	for i, l := range logs {
		if i > 0 {
			fmt.Fprintln(a.out, "----")
		}
		fmt.Fprintln(a.out, l)
	}
	return nil
}

// restore prints the download link of the restored archive, or saves the
// archive to a file when one is given.
func (a *App) restore(ctx context.Context, args []string) error {
	url, err := a.client.Restore(ctx, args[0])
	if err != nil {
		return err
	}
	if len(args) == 1 {
		fmt.Fprintln(a.out, url)
		return nil
	}

	f, err := filex.CreatePrivate(args[1])
	if err != nil {
		return err
	}
	n, err := netx.Download(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(args[1])
		return err
	}

	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", n, args[1])
	return nil
}

// key writes the repository key to a new owner-only file, or to the
// output when no file is given.
func (a *App) key(ctx context.Context, args []string) error {
	key, err := a.client.RepositoryKey(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	if len(args) == 0 {
		_, err := a.out.Write(key)
		return err
	}
	if err := filex.WritePrivate(args[0], key); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Repository key saved to", args[0])
	return nil
}

func (a *App) pubkey(ctx context.Context, _ []string) error {
	key, err := a.client.ServerPublicKey(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, key)
	return nil
}

func (a *App) sendKey(ctx context.Context, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := a.client.SendSSHKey(ctx, data); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Public key installed")
	return nil
}
