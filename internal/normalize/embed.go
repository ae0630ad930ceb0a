package normalize

import (
	"encoding/json"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
	"github.com/blackmichael/skygazer/internal/richtext"
)

// Embed normalizes the embed of a post view. It returns nil for a missing or
// unsupported embed.
func Embed(e *lexicon.PostViewEmbed) *domain.Embed {
	if e == nil {
		return nil
	}

	var out domain.Embed
	switch {
	case e.EmbedImagesView != nil:
		out.Images = images(e.EmbedImagesView)
	case e.EmbedVideoView != nil:
		out.Video = video(e.EmbedVideoView)
	case e.EmbedExternalView != nil:
		out.External = external(e.EmbedExternalView)
	case e.EmbedRecordView != nil:
		out.Record = record(e.EmbedRecordView.Record)
	case e.EmbedRecordWithMediaView != nil:
		rwm := e.EmbedRecordWithMediaView
		if m := rwm.Media; m != nil {
			out.Images = images(m.EmbedImagesView)
			out.Video = video(m.EmbedVideoView)
			out.External = external(m.EmbedExternalView)
		}
		if rwm.Record != nil {
			out.Record = record(rwm.Record.Record)
		}
	default:
		return nil
	}
	return &out
}

// reducedEmbed returns the first media of a quoted post: images, a video or
// an external link, never more than one kind. Nested records are skipped,
// but the media half of a nested record-with-media counts.
func reducedEmbed(embeds []lexicon.PostViewEmbed) *domain.ReducedEmbed {
	for _, e := range embeds {
		imgs, vid, ext := e.EmbedImagesView, e.EmbedVideoView, e.EmbedExternalView
		if rwm := e.EmbedRecordWithMediaView; rwm != nil && rwm.Media != nil {
			imgs, vid, ext = rwm.Media.EmbedImagesView, rwm.Media.EmbedVideoView, rwm.Media.EmbedExternalView
		}

		switch {
		case imgs != nil:
			return &domain.ReducedEmbed{Images: images(imgs)}
		case vid != nil:
			return &domain.ReducedEmbed{Video: video(vid)}
		case ext != nil && ext.External != nil:
			return &domain.ReducedEmbed{External: external(ext)}
		}
	}
	return nil
}

func images(v *lexicon.EmbedImagesView) []domain.Image {
	if v == nil {
		return nil
	}
	out := make([]domain.Image, len(v.Images))
	for i, img := range v.Images {
		out[i] = domain.Image{
			Thumb:       img.Thumb,
			Fullsize:    img.Fullsize,
			Alt:         img.Alt,
			AspectRatio: aspectRatio(img.AspectRatio),
		}
	}
	return out
}

func video(v *lexicon.EmbedVideoView) *domain.Video {
	if v == nil {
		return nil
	}
	return &domain.Video{
		Playlist:    v.Playlist,
		Thumbnail:   deref(v.Thumbnail),
		Alt:         deref(v.Alt),
		AspectRatio: aspectRatio(v.AspectRatio),
	}
}

func external(v *lexicon.EmbedExternalView) *domain.External {
	if v == nil || v.External == nil {
		return nil
	}
	return &domain.External{
		URI:         v.External.URI,
		Title:       v.External.Title,
		Description: v.External.Description,
		Thumb:       deref(v.External.Thumb),
	}
}

func aspectRatio(a *lexicon.AspectRatio) *domain.AspectRatio {
	if a == nil {
		return nil
	}
	return &domain.AspectRatio{Width: a.Width, Height: a.Height}
}

func record(u *lexicon.EmbedRecordViewRecordUnion) domain.EmbeddedRecord {
	switch {
	case u == nil:
		return nil
	case u.ViewRecord != nil:
		return quotedPost(u.ViewRecord)
	case u.ViewNotFound != nil:
		return &domain.NotFoundRecord{URI: u.ViewNotFound.URI}
	case u.ViewBlocked != nil:
		return &domain.BlockedRecord{URI: u.ViewBlocked.URI}
	case u.ViewDetached != nil:
		return &domain.DetachedRecord{URI: u.ViewDetached.URI}
	case u.GeneratorView != nil:
		return generator(u.GeneratorView)
	case u.ListView != nil:
		return list(u.ListView)
	case u.LabelerView != nil:
		return labeler(u.LabelerView)
	case u.StarterPackViewBasic != nil:
		return starterPack(u.StarterPackViewBasic)
	case u.Unknown != nil:
		return &domain.UnknownRecord{Type: u.Unknown.Type}
	}
	return nil
}

// quotedPost keeps a quote even when its record body cannot be decoded; the
// text is then empty.
func quotedPost(r *lexicon.EmbedRecordViewRecord) *domain.QuotedPost {
	q := &domain.QuotedPost{
		URI:    r.URI,
		CID:    r.CID,
		Author: Author(r.Author, nil),
		Labels: postLabels(r.Labels, nil),
		Counts: counts(r.ReplyCount, r.RepostCount, r.QuoteCount, r.LikeCount),
		Embed:  reducedEmbed(r.Embeds),
	}
	if rec, createdAt, err := decodePostRecord(r.Value); err == nil {
		q.Text = rec.Text
		q.Facets = richtext.Resolve(rec.Text, rec.Facets)
		q.CreatedAt = createdAt
		q.Langs = rec.Langs
		q.Tags = rec.Tags
		q.Labels = postLabels(r.Labels, rec.Labels)
	}
	return q
}

func creator(p *lexicon.ProfileView) *domain.Author {
	if p == nil {
		return nil
	}
	a := Author(&p.ProfileViewBasic, nil)
	return &a
}

func generator(g *lexicon.GeneratorView) *domain.FeedGenerator {
	out := &domain.FeedGenerator{
		URI:                 g.URI,
		CID:                 g.CID,
		DID:                 g.DID,
		DisplayName:         g.DisplayName,
		Description:         deref(g.Description),
		Avatar:              deref(g.Avatar),
		Creator:             creator(g.Creator),
		AcceptsInteractions: derefBool(g.AcceptsInteractions),
		Labels:              moderationLabels(g.Labels),
		Likes:               nonNegative(g.LikeCount),
		VideoOnly:           deref(g.ContentMode) == "app.bsky.feed.defs#contentModeVideo",
	}
	if g.Viewer != nil {
		out.LikeURI = deref(g.Viewer.Like)
	}
	return out
}

func list(l *lexicon.ListView) *domain.ListRecord {
	out := &domain.ListRecord{
		URI:         l.URI,
		CID:         l.CID,
		Name:        l.Name,
		Purpose:     l.Purpose,
		Description: deref(l.Description),
		Avatar:      deref(l.Avatar),
		Creator:     creator(l.Creator),
		Items:       nonNegative(l.ListItemCount),
	}
	if l.Viewer != nil {
		out.BlockURI = deref(l.Viewer.Blocked)
	}
	return out
}

func labeler(l *lexicon.LabelerView) *domain.LabelerRecord {
	out := &domain.LabelerRecord{
		URI:     l.URI,
		CID:     l.CID,
		Creator: creator(l.Creator),
		Labels:  moderationLabels(l.Labels),
		Likes:   nonNegative(l.LikeCount),
	}
	if l.Viewer != nil {
		out.LikeURI = deref(l.Viewer.Like)
	}
	return out
}

func starterPack(s *lexicon.StarterPackViewBasic) *domain.StarterPack {
	out := &domain.StarterPack{
		URI:           s.URI,
		CID:           s.CID,
		Items:         nonNegative(s.ListItemCount),
		JoinedWeek:    nonNegative(s.JoinedWeekCount),
		JoinedAllTime: nonNegative(s.JoinedAllTimeCount),
	}
	if s.Creator != nil {
		a := Author(s.Creator, nil)
		out.Creator = &a
	}

	var rec lexicon.StarterPackRecord
	if len(s.Record) > 0 && json.Unmarshal(s.Record, &rec) == nil {
		out.Name = rec.Name
		out.Description = deref(rec.Description)
		out.ListURI = rec.List
		for _, f := range rec.Feeds {
			out.FeedURIs = append(out.FeedURIs, f.URI)
		}
	}
	return out
}
