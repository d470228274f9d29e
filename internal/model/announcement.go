package model

import (
	"github.com/nbd-wtf/go-nostr"
)

// Announcement is the materialized view of a repository announcement event.
// It is recomputed from the fetched event on every command run and never
// cached across invocations.
type Announcement struct {
	Identifier  string
	Name        string
	Description string
	Web         []string
	Clone       []string
	Relays      []string
	Maintainers []string
	// EarliestUniqueCommit is the commit hash that identifies the repository
	// across forks, when announced.
	EarliestUniqueCommit string
}

// DecodeAnnouncement projects an announcement event into its tag-derived
// view. Unknown tags are ignored; multi-value tags keep their order.
func DecodeAnnouncement(evt *nostr.Event, identifier string) Announcement {
	ann := Announcement{Identifier: identifier}

	for _, tag := range evt.Tags {
		if len(tag) < 2 {
			continue
		}
		switch tag[0] {
		case "name":
			ann.Name = tag[1]
		case "description":
			ann.Description = tag[1]
		case "web":
			ann.Web = append(ann.Web, tag[1:]...)
		case "clone":
			ann.Clone = append(ann.Clone, tag[1:]...)
		case "relays":
			ann.Relays = append(ann.Relays, tag[1:]...)
		case "maintainers":
			ann.Maintainers = append(ann.Maintainers, tag[1:]...)
		case "r":
			// ["r", "<hash>", "euc"]
			if len(tag) >= 3 && tag[2] == "euc" {
				ann.EarliestUniqueCommit = tag[1]
			}
		}
	}
	return ann
}

// AnnouncementRelays collects every relay announced by the repositories.
func AnnouncementRelays(anns []Announcement) []string {
	var relays []string
	for _, a := range anns {
		relays = append(relays, a.Relays...)
	}
	return relays
}

// AnnouncementMaintainers collects every maintainer of the repositories.
func AnnouncementMaintainers(anns []Announcement) []string {
	var maintainers []string
	for _, a := range anns {
		maintainers = append(maintainers, a.Maintainers...)
	}
	return maintainers
}

// FirstEUC returns the first announced earliest-unique-commit hash, if any.
func FirstEUC(anns []Announcement) string {
	for _, a := range anns {
		if a.EarliestUniqueCommit != "" {
			return a.EarliestUniqueCommit
		}
	}
	return ""
}
