// Package main is the FloraFacts command-line client. It acquires a plant
// photo from a file or a snapshot camera, has the server identify it and
// manages the signed-in user's gallery and profile.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/capture"
	"github.com/atinyakov/FloraFacts/internal/client/api"
	"github.com/atinyakov/FloraFacts/internal/client/gallery"
	"github.com/atinyakov/FloraFacts/internal/client/prompt"
	"github.com/atinyakov/FloraFacts/internal/client/session"
	"github.com/atinyakov/FloraFacts/internal/client/storage"
	"github.com/atinyakov/FloraFacts/internal/logger"
)

var (
	version   string
	buildDate string
)

const defaultServer = "http://localhost:8080"

// commandError marks a failure of a command's own work, as opposed to a
// usage error reported by cobra. Only these are translated for the user.
type commandError struct{ err error }

func (e commandError) Error() string { return e.err.Error() }
func (e commandError) Unwrap() error { return e.err }

func fail(err error) error {
	if err == nil {
		return nil
	}
	return commandError{err: err}
}

// globals are the persistent flags shared by every command.
type globals struct {
	server   string
	token    string
	caFile   string
	state    string
	logLevel string
	timeout  time.Duration
}

// app is what a command runs against, built once flags are parsed.
type app struct {
	ls      *storage.LocalStorage
	client  *api.Client
	session *session.Session
	log     *zap.Logger
	in      io.Reader
	out     io.Writer
}

func (a *app) view() *gallery.View { return a.session.Gallery() }

// syncGallery points the gallery view at the current identity and loads it.
func (a *app) syncGallery(ctx context.Context) error {
	return a.view().SetIdentity(ctx, a.client.Identity(), a.client)
}

func newApp(g *globals, in io.Reader, out io.Writer, log *zap.Logger) (*app, error) {
	ls, err := storage.Open(g.state)
	if err != nil {
		return nil, err
	}
	st := ls.State()

	caFile := cmp.Or(g.caFile, st.CAFile)
	httpClient, err := api.NewHTTPClient(caFile, g.timeout)
	if err != nil {
		return nil, err
	}
	server := cmp.Or(g.server, st.Server, defaultServer)
	client := api.New(server, httpClient, cmp.Or(g.token, st.Token))

	view := gallery.NewView(client, log)
	return &app{
		ls:      ls,
		client:  client,
		session: session.New(client, view, log),
		log:     log,
		in:      in,
		out:     out,
	}, nil
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	g := &globals{}
	var a *app
	log := logger.New()

	root := &cobra.Command{
		Use:           "florafacts",
		Short:         "Identify plants from photos and keep them in a gallery",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if err := log.Init(g.logLevel); err != nil {
				return err
			}
			var err error
			a, err = newApp(g, in, out, log.Log)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = log.Sync()
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&g.server, "server", "", "server base URL (default is the saved one, then "+defaultServer+")")
	pf.StringVar(&g.token, "token", "", "bearer token for this run only")
	pf.StringVar(&g.caFile, "ca", "", "CA certificate for a server with a private certificate")
	pf.StringVar(&g.state, "state", storage.DefaultPath(), "client state file")
	pf.StringVar(&g.logLevel, "log-level", "error", "log level")
	pf.DurationVar(&g.timeout, "timeout", api.DefaultTimeout, "request timeout")

	get := func() *app { return a }
	root.AddCommand(
		newLoginCmd(get, g),
		newLogoutCmd(get),
		newIdentifyCmd(get),
		newSaveCmd(get),
		newGalleryCmd(get),
		newProfileCmd(get),
		newAccountCmd(get),
		newVersionCmd(out),
	)
	return root
}

func newLoginCmd(get func() *app, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Remember a bearer token and the server it belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			token := args[0]
			st := a.ls.State()
			a.ls.SetServer(cmp.Or(g.server, st.Server, defaultServer), cmp.Or(g.caFile, st.CAFile))
			a.ls.SetToken(token)
			a.client = a.client.WithToken(token)
			identity := a.client.Identity()
			if identity == "" {
				return fail(errors.New("token has no subject"))
			}
			if err := a.ls.Save(); err != nil {
				return fail(err)
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", identity)
			return nil
		},
	}
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			a.ls.SetToken("")
			if err := a.ls.Save(); err != nil {
				return fail(err)
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func newIdentifyCmd(get func() *app) *cobra.Command {
	var (
		file      string
		cameraURL string
		facing    string
		warmup    time.Duration
		save      bool
	)
	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Identify the plant in a photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			ctx := cmd.Context()

			var (
				dataURL string
				err     error
			)
			switch {
			case file != "" && cameraURL != "":
				return errors.New("use either --file or --camera, not both")
			case file != "":
				dataURL, err = capture.FromFile(file)
			case cameraURL != "":
				dataURL, err = snapshot(ctx, cameraURL, facing, warmup)
			default:
				return errors.New("one of --file or --camera is required")
			}
			if err != nil {
				return fail(err)
			}

			res, err := a.session.Identify(ctx, dataURL)
			if err != nil {
				return fail(err)
			}
			renderResult(a.out, res)

			a.ls.SetLastResult(res)
			if err := a.ls.Save(); err != nil {
				a.log.Warn("failed to remember result", zap.Error(err))
			}
			if !save {
				return nil
			}
			return saveCurrent(ctx, a)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "image file to identify")
	f.StringVar(&cameraURL, "camera", "", "snapshot URL of a camera")
	f.StringVar(&facing, "facing", capture.FacingEnvironment, "facing mode served by --camera")
	f.DurationVar(&warmup, "warmup", 10*time.Second, "how long to wait for the camera's first frame")
	f.BoolVar(&save, "save", false, "save the result to your gallery")
	return cmd
}

// snapshot takes one photo from the camera behind url.
func snapshot(ctx context.Context, url, facing string, warmup time.Duration) (string, error) {
	cam := capture.NewCamera(&capture.SnapshotDevice{URLs: map[string]string{facing: url}})
	defer cam.Close()

	if err := cam.Start(ctx); err != nil {
		return "", err
	}
	waitCtx, cancel := context.WithTimeout(ctx, warmup)
	defer cancel()
	if err := cam.WaitReady(waitCtx); err != nil {
		return "", err
	}
	return cam.Capture()
}

func newSaveCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the last identified plant to your gallery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			a.session.Restore(a.ls.State().LastResult)
			return saveCurrent(cmd.Context(), a)
		},
	}
}

func saveCurrent(ctx context.Context, a *app) error {
	if a.client.Identity() == "" {
		fmt.Fprintln(a.out, "Sign in to save plants to your gallery.")
		return nil
	}
	if err := a.syncGallery(ctx); err != nil {
		return fail(err)
	}
	item, saved, err := a.session.Save(ctx)
	if err != nil {
		return fail(err)
	}
	if !saved {
		fmt.Fprintln(a.out, "This plant is already in your gallery.")
		return nil
	}
	fmt.Fprintf(a.out, "Saved %s (%s)\n", item.PlantInfo.Name, item.ID)
	return nil
}

func newGalleryCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Browse and manage your saved plants",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved plants, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := a.syncGallery(cmd.Context()); err != nil {
				return fail(err)
			}
			if a.view().Identity() == "" {
				fmt.Fprintln(a.out, "Sign in to keep a gallery.")
				return nil
			}
			renderGallery(a.out, a.view().Items())
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a plant from the gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.syncGallery(cmd.Context()); err != nil {
				return fail(err)
			}
			if err := a.view().Remove(cmd.Context(), args[0]); err != nil {
				return fail(err)
			}
			fmt.Fprintln(a.out, "Removed")
			return nil
		},
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every plant from the gallery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if !yes && !prompt.Confirm(a.in, a.out, "Remove all plants from your gallery?") {
				return nil
			}
			if err := a.syncGallery(cmd.Context()); err != nil {
				return fail(err)
			}
			if err := a.view().Clear(cmd.Context()); err != nil {
				return fail(err)
			}
			fmt.Fprintln(a.out, "Gallery cleared")
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, rm, clearCmd)
	return cmd
}

func newProfileCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			p, err := a.client.Profile(cmd.Context())
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(a.out, "%s %s\n", p.Avatar, p.UserID)
			return nil
		},
	}

	avatar := &cobra.Command{
		Use:   "avatar [symbol]",
		Short: "Pick your avatar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			var choice string
			if len(args) == 1 {
				choice = args[0]
			} else {
				var err error
				if choice, err = prompt.Avatar(a.in, a.out); err != nil {
					return fail(err)
				}
			}
			p, err := a.client.SetAvatar(cmd.Context(), choice)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(a.out, "Avatar set to %s\n", p.Avatar)
			return nil
		},
	}

	cmd.AddCommand(show, avatar)
	return cmd
}

func newAccountCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage your account data",
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete your gallery and profile from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if !yes && !prompt.Confirm(a.in, a.out, "Delete all your saved data? This cannot be undone.") {
				return nil
			}
			if err := a.client.DeleteAccount(cmd.Context()); err != nil {
				return fail(err)
			}
			a.ls.SetToken("")
			if err := a.ls.Save(); err != nil {
				return fail(err)
			}
			fmt.Fprintln(a.out, "Your data has been deleted and you are signed out.")
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(del)
	return cmd
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version and date",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(out, "FloraFacts Client\nVersion: %s\nBuild Date: %s\n",
				cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		},
	}
}

// errorText is what the user sees for err.
func errorText(err error) string {
	var ce commandError
	if errors.As(err, &ce) {
		return session.UserMessage(ce.err)
	}
	return err.Error()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorText(err))
		os.Exit(1)
	}
}
