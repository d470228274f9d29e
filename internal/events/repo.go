package events

import (
	"context"
	"strings"
	"unicode"

	"github.com/nbd-wtf/go-nostr"

	"github.com/nitcli/nit/internal/model"
)

// AnnouncementInput describes a repository announcement.
type AnnouncementInput struct {
	Identifier  string
	Name        string
	Description string
	Web         []string
	Clone       []string
	Relays      []string
	Maintainers []string
	Labels      []string
	// EUC is the earliest-unique-commit hash identifying the repository
	// across forks.
	EUC string
	// ForceIdentifier skips the kebab-case identifier check.
	ForceIdentifier bool
}

// Announcement builds a repository announcement event. The identifier
// must be kebab-case unless forced, since it ends up in every address
// that references the repository.
func (b *Builder) Announcement(ctx context.Context, in AnnouncementInput) (*nostr.Event, error) {
	id := strings.TrimSpace(in.Identifier)
	if id == "" {
		return nil, &model.DecodeError{What: "repository id", Raw: in.Identifier}
	}
	if kebab := toKebab(id); !in.ForceIdentifier && id != kebab {
		return nil, &model.DecodeError{
			What: "repository id, should be " + kebab + " (kebab-case), use --force-id to override",
			Raw:  id,
		}
	}

	tags := nostr.Tags{{"d", id}}
	if in.Name != "" {
		tags = append(tags, nostr.Tag{"name", strings.TrimSpace(in.Name)})
	}
	if in.Description != "" {
		tags = append(tags, nostr.Tag{"description", strings.TrimSpace(in.Description)})
	}
	if len(in.Web) > 0 {
		tags = append(tags, append(nostr.Tag{"web"}, in.Web...))
	}
	if len(in.Clone) > 0 {
		tags = append(tags, append(nostr.Tag{"clone"}, in.Clone...))
	}
	if len(in.Relays) > 0 {
		tags = append(tags, append(nostr.Tag{"relays"}, in.Relays...))
	}
	if len(in.Maintainers) > 0 {
		tags = append(tags, append(nostr.Tag{"maintainers"}, in.Maintainers...))
	}
	if in.EUC != "" {
		tags = append(tags, nostr.Tag{"r", in.EUC, "euc"})
	}
	tags = append(tags, hashtagTags(in.Labels)...)

	return b.finish(ctx, &nostr.Event{
		Kind: model.KindRepoAnnouncement,
		Tags: dedupTags(tags),
	})
}

// RefState is one announced git ref, branch or tag, at a commit.
type RefState struct {
	Name   string
	Commit string
}

// StateInput describes a repository state announcement.
type StateInput struct {
	Identifier string
	// Head is the name of the primary branch.
	Head     string
	Branches []RefState
	Tags     []RefState
}

// State builds a repository state event listing the current refs.
func (b *Builder) State(ctx context.Context, in StateInput) (*nostr.Event, error) {
	tags := nostr.Tags{
		{"d", in.Identifier},
		{"HEAD", "ref: refs/heads/" + in.Head},
	}
	for _, branch := range in.Branches {
		tags = append(tags, nostr.Tag{"refs/heads/" + branch.Name, branch.Commit})
	}
	for _, tag := range in.Tags {
		tags = append(tags, nostr.Tag{"refs/tags/" + tag.Name, tag.Commit})
	}

	return b.finish(ctx, &nostr.Event{
		Kind: model.KindRepoState,
		Tags: dedupTags(tags),
	})
}

// toKebab lowercases and joins word boundaries with dashes, so
// "RepoName" and "repo_name" both become "repo-name".
func toKebab(s string) string {
	var out strings.Builder
	var prevLower bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				out.WriteByte('-')
			}
			out.WriteRune(unicode.ToLower(r))
			prevLower = false
		case r == '_' || r == ' ' || r == '-':
			out.WriteByte('-')
			prevLower = false
		default:
			out.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return out.String()
}
