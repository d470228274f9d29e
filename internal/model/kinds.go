package model

// Nostr event kinds used by the git collaboration protocol (NIP-34 and
// friends). Pull request kinds follow the draft PR extension.
const (
	KindRepoAnnouncement = 30617
	KindRepoState        = 30618
	KindPatch            = 1617
	KindIssue            = 1621
	KindPullRequest      = 1618
	KindPRUpdate         = 1619
	KindComment          = 1111
	KindRelayList        = 10002
	KindProfileMetadata  = 0

	KindStatusOpen          = 1630
	KindStatusMergedApplied = 1631
	KindStatusClosed        = 1632
	KindStatusDraft         = 1633
)

// Reply-tag markers (NIP-10).
const (
	MarkerRoot  = "root"
	MarkerReply = "reply"
)

// Hashtags classifying a patch inside a series.
const (
	RootHashtag     = "root"
	RevisionHashtag = "root-revision"
	// ngit published "revision-root" before fixing the typo; it must be
	// accepted as equivalent on read.
	LegacyRevisionHashtag = "revision-root"
)
