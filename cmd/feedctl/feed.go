package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/pager"
	"github.com/blackmichael/skygazer/internal/richtext"
)

const previewLength = 280

var feedsCmd = &cli.Command{
	Name:  "feeds",
	Usage: "list saved feeds",
	Action: func(cctx *cli.Context) error {
		e, err := connect(cctx)
		if err != nil {
			return err
		}
		defer e.Close()

		feeds := e.session.Preferences().Feeds
		if cctx.Bool("json") {
			return printJSON(cctx, feeds)
		}

		w := tabwriter.NewWriter(cctx.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPINNED\tURI")
		for _, f := range feeds {
			fmt.Fprintf(w, "%s\t%t\t%s\n", f.Name, f.Pinned, f.URI)
		}
		return w.Flush()
	},
}

var feedCmd = &cli.Command{
	Name:  "feed",
	Usage: "print pages of a feed, resuming from the saved snapshot",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "feed",
			Usage: "feed URI, or 'following' for the home timeline",
			Value: domain.TimelineFeedURI,
		},
		&cli.IntFlag{
			Name:  "pages",
			Usage: "pages to load after opening",
			Value: 0,
		},
		&cli.BoolFlag{
			Name:  "refresh",
			Usage: "discard the snapshot and load from the top",
		},
	},
	Action: func(cctx *cli.Context) error {
		e, err := connect(cctx)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cctx.Context
		v, err := e.session.OpenFeed(ctx, cctx.String("feed"))
		if err == nil && cctx.Bool("refresh") {
			v, err = e.session.Refresh(ctx)
		}
		for i := 0; err == nil && i < cctx.Int("pages") && v.State == pager.StateLoaded; i++ {
			v, err = e.session.LoadMore(ctx)
		}
		if err != nil {
			return err
		}

		if perr := e.session.Pager().Persist(ctx); perr != nil {
			fmt.Fprintf(cctx.App.ErrWriter, "warning: %v\n", perr)
		}

		if cctx.Bool("json") {
			return printJSON(cctx, v)
		}
		for _, fp := range v.Posts {
			writeFeedPost(cctx.App.Writer, fp)
		}
		if v.State == pager.StateEndOfFeed {
			fmt.Fprintln(cctx.App.Writer, "-- end of feed --")
		}
		return nil
	},
}

var postCmd = &cli.Command{
	Name:      "post",
	Usage:     "print one post",
	ArgsUsage: "<at-uri>",
	Action: func(cctx *cli.Context) error {
		uri := cctx.Args().First()
		if uri == "" {
			return cli.Exit("post URI is required", 1)
		}

		e, err := connect(cctx)
		if err != nil {
			return err
		}
		defer e.Close()

		post, err := e.session.GetPostAtURI(cctx.Context, uri)
		if err != nil {
			return err
		}
		if post == nil {
			return cli.Exit("post not found or hidden by your content preferences", 1)
		}
		if cctx.Bool("json") {
			return printJSON(cctx, post)
		}
		writeFeedPost(cctx.App.Writer, domain.FeedPost{Post: *post})
		return nil
	},
}

var userCmd = &cli.Command{
	Name:      "user",
	Usage:     "print a profile",
	ArgsUsage: "<handle-or-did>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "pinned", Usage: "include the pinned post"},
	},
	Action: func(cctx *cli.Context) error {
		actor := normalizeHandle(cctx.Args().First())
		if actor == "" {
			return cli.Exit("actor is required", 1)
		}

		e, err := connect(cctx)
		if err != nil {
			return err
		}
		defer e.Close()

		user, err := e.session.GetFullUser(cctx.Context, actor, cctx.Bool("pinned"))
		if err != nil {
			return err
		}
		if cctx.Bool("json") {
			return printJSON(cctx, user)
		}
		writeUser(cctx.App.Writer, user)
		return nil
	},
}

func writeFeedPost(w io.Writer, fp domain.FeedPost) {
	switch fp.Reason.Kind {
	case domain.ReasonReposted:
		fmt.Fprintf(w, "  reposted by %s\n", fp.Reason.By)
	case domain.ReasonPinned:
		fmt.Fprintln(w, "  pinned")
	}
	if fp.Root != nil {
		fmt.Fprintf(w, "  in thread %s\n", ancestorLabel(fp.Root))
	}
	if fp.Parent != nil {
		fmt.Fprintf(w, "  reply to %s\n", ancestorLabel(fp.Parent))
	}

	fmt.Fprintf(w, "%s @%s · %s\n", fp.Author.Name(), fp.Author.Handle, fp.CreatedAt.Local().Format(time.DateTime))
	if fp.Text != "" {
		for _, line := range strings.Split(richtext.Truncate(fp.Text, previewLength), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	if e := fp.Embed; e != nil {
		switch {
		case len(e.Images) > 0:
			fmt.Fprintf(w, "  [%d image(s)]\n", len(e.Images))
		case e.Video != nil:
			fmt.Fprintln(w, "  [video]")
		case e.External != nil:
			fmt.Fprintf(w, "  [link] %s\n", e.External.URI)
		}
		if e.Record != nil {
			fmt.Fprintf(w, "  [%s]\n", e.Record.Kind())
		}
	}

	stats := fmt.Sprintf("  %d replies  %d reposts  %d quotes  %d likes", fp.Counts.Replies, fp.Counts.Reposts, fp.Counts.Quotes, fp.Counts.Likes)
	if fp.Viewer.LikeURI != "" {
		stats += "  (liked)"
	}
	fmt.Fprintln(w, stats)
	for _, l := range fp.Labels.Moderation {
		if l.Visibility != domain.VisibilityShow {
			fmt.Fprintf(w, "  label %s: %s\n", l.Name, l.Visibility)
		}
	}
	fmt.Fprintf(w, "  %s\n\n", fp.URI)
}

func ancestorLabel(rp *domain.RootPost) string {
	switch {
	case rp.Blocked:
		return "a blocked post"
	case !rp.Found:
		return "a deleted post"
	case rp.Post == nil:
		return rp.URI
	default:
		return "@" + rp.Post.Author.Handle
	}
}

func writeUser(w io.Writer, u *domain.User) {
	fmt.Fprintf(w, "%s @%s\n%s\n", u.Name(), u.Handle, u.DID)
	if u.Bio != "" {
		fmt.Fprintf(w, "\n%s\n\n", u.Bio)
	}
	fmt.Fprintf(w, "%d followers  %d following  %d posts\n", u.Followers, u.Follows, u.Posts)
	if u.FollowedBy {
		fmt.Fprintln(w, "follows you")
	}
	for _, l := range u.UserLabels {
		fmt.Fprintf(w, "label %s (by @%s)\n", l.Name, l.CreatorHandle)
	}
	if u.PinnedPost != nil {
		fmt.Fprintln(w, "\npinned:")
		writeFeedPost(w, domain.FeedPost{Post: *u.PinnedPost})
	}
}
